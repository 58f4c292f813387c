package receipt

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	accountdomain "github.com/scsaalabs/memberhub/internal/account/domain"
	paymentdomain "github.com/scsaalabs/memberhub/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrPaymentNotFound = errors.New("payment_not_found")

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Accounts accountdomain.Repository
	Payments paymentdomain.Repository
}

// Generator renders a dues receipt PDF for a recorded payment.
type Generator struct {
	db       *gorm.DB
	log      *zap.Logger
	accounts accountdomain.Repository
	payments paymentdomain.Repository
}

func New(p Params) *Generator {
	return &Generator{
		db:       p.DB,
		log:      p.Log.Named("receipt"),
		accounts: p.Accounts,
		payments: p.Payments,
	}
}

func (g *Generator) Render(ctx context.Context, paymentID snowflake.ID) ([]byte, error) {
	payment, err := g.payments.FindByID(ctx, g.db, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	memberName := ""
	account, err := g.accounts.FindByID(ctx, g.db, payment.AccountID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		memberName = fmt.Sprintf("%s %s", account.FirstName, account.LastName)
	}

	cfg := config.NewBuilder().
		WithLeftMargin(20).
		WithRightMargin(20).
		WithTopMargin(20).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14,
		text.NewCol(12, "Membership Dues Receipt", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRows(
		labelRow("Member", memberName),
		labelRow("Membership year", fmt.Sprintf("%d", payment.RecordedAt.Year())),
		labelRow("Payment reference", payment.ProviderPaymentID),
		labelRow("Paid on", payment.RecordedAt.Format("January 2, 2006")),
		labelRow("Amount", "$"+payment.AmountDollars()),
	)

	m.AddRow(4, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(12, "Thank you for supporting the association.", props.Text{
			Size:  9,
			Align: align.Center,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	g.log.Debug("receipt rendered",
		zap.String("payment_id", paymentID.String()),
		zap.Int("bytes", len(doc.GetBytes())))
	return doc.GetBytes(), nil
}

func labelRow(label, value string) core.Row {
	return row.New(8).Add(
		text.NewCol(4, label, props.Text{Size: 10, Style: fontstyle.Bold}),
		text.NewCol(8, value, props.Text{Size: 10}),
	)
}

var Module = fx.Module("receipt", fx.Provide(New))
