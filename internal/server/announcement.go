package server

import (
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	announcementdomain "github.com/scsaalabs/memberhub/internal/announcement/domain"
	"gorm.io/datatypes"
)

type createAnnouncementRequest struct {
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Publish  bool           `json:"publish"`
	Metadata datatypes.JSON `json:"metadata"`
}

type updateAnnouncementRequest struct {
	Title    *string        `json:"title,omitempty"`
	Body     *string        `json:"body,omitempty"`
	Publish  *bool          `json:"publish,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

func (s *Server) ListAnnouncements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := s.announcementSvc.ListPublished(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, items)
}

func (s *Server) ListAllAnnouncements(c *gin.Context) {
	items, err := s.announcementSvc.ListAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, items)
}

func (s *Server) GetAnnouncement(c *gin.Context) {
	a, err := s.announcementSvc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	// Unpublished posts are only visible through the admin listing.
	if !a.Published() {
		AbortWithError(c, ErrNotFound)
		return
	}
	respondData(c, a)
}

func (s *Server) CreateAnnouncement(c *gin.Context) {
	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	a, err := s.announcementSvc.Create(c.Request.Context(), announcementdomain.CreateRequest{
		Title:     req.Title,
		Body:      req.Body,
		Publish:   req.Publish,
		Metadata:  req.Metadata,
		CreatedBy: currentAccount(c).ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, a)
}

func (s *Server) UpdateAnnouncement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req updateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	a, err := s.announcementSvc.Update(c.Request.Context(), id, announcementdomain.UpdateRequest{
		Title:    req.Title,
		Body:     req.Body,
		Publish:  req.Publish,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, a)
}

func (s *Server) DeleteAnnouncement(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil || id == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.announcementSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	respondData(c, gin.H{"deleted": true})
}
