package pdfgen

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/billora/billora/internal/config"
	ierr "github.com/billora/billora/internal/errors"
	"github.com/billora/billora/internal/logger"
)

// TypstRenderer renders invoices by executing the typst binary against
// a template filled in with Go templating.
type TypstRenderer struct {
	templateDir string
	fontDir     string
	log         *logger.Logger
}

func NewTypstRenderer(cfg *config.Configuration, log *logger.Logger) Generator {
	return &TypstRenderer{
		templateDir: cfg.Pdf.TemplateDir,
		fontDir:     cfg.Pdf.FontDir,
		log:         log,
	}
}

func (r *TypstRenderer) Generate(ctx context.Context, data *InvoiceData) ([]byte, error) {
	typPath, err := r.prepareTemplate(data)
	if err != nil {
		return nil, err
	}
	defer os.Remove(typPath)

	return r.compile(ctx, data.ID, typPath)
}

func (r *TypstRenderer) prepareTemplate(data *InvoiceData) (string, error) {
	templatePath := filepath.Join(r.templateDir, "invoice.typ.tmpl")
	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to read template file").Mark(ierr.ErrSystem)
	}

	tmpl, err := template.New("invoice").Parse(string(templateContent))
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to parse template").Mark(ierr.ErrSystem)
	}

	typPath := filepath.Join(os.TempDir(), fmt.Sprintf("invoice-%s.typ", data.ID))
	f, err := os.Create(typPath)
	if err != nil {
		return "", ierr.WithError(err).WithMessage("failed to create temp file").Mark(ierr.ErrSystem)
	}
	defer f.Close()

	if err := tmpl.Execute(f, convertToTypstFormat(data)); err != nil {
		return "", ierr.WithError(err).WithMessage("failed to render template").Mark(ierr.ErrSystem)
	}

	return typPath, nil
}

func (r *TypstRenderer) compile(ctx context.Context, id, typPath string) ([]byte, error) {
	pdfPath := filepath.Join(filepath.Dir(typPath), fmt.Sprintf("invoice-%s.pdf", id))
	defer os.Remove(pdfPath)

	typstBinaryPath, err := exec.LookPath("typst")
	if err != nil {
		return nil, ierr.WithError(err).WithHint("typst binary not found on PATH").Mark(ierr.ErrSystem)
	}

	args := []string{"compile", typPath, pdfPath}
	if r.fontDir != "" {
		args = append(args, "--font-path", r.fontDir)
	}

	cmd := exec.CommandContext(ctx, typstBinaryPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		r.log.Errorw("typst compile failed", "error", err, "output", string(out))
		return nil, ierr.WithError(err).WithHint("failed to compile typst template").Mark(ierr.ErrSystem)
	}

	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("failed to read compiled PDF").Mark(ierr.ErrSystem)
	}

	return pdfBytes, nil
}

// TypstData is the template context passed to the invoice template.
type TypstData struct {
	Title         string
	InvoiceNumber string
	InvoiceID     string
	CustomerID    string
	Status        string
	Currency      string
	IssuedAt      string
	DueDate       string
	Notes         string

	Subtotal      string
	DiscountTotal string
	TaxTotal      string
	Total         string
	AmountPaid    string
	AmountDue     string

	Items []TypstItem
}

type TypstItem struct {
	Description string
	Quantity    string
	UnitAmount  string
	Amount      string
}

func convertToTypstFormat(data *InvoiceData) TypstData {
	issuedAt := ""
	if data.IssuedAt != nil {
		issuedAt = data.IssuedAt.Format("2006-01-02")
	}
	dueDate := ""
	if data.DueDate != nil {
		dueDate = data.DueDate.Format("2006-01-02")
	}

	items := make([]TypstItem, len(data.Items))
	for i, item := range data.Items {
		items[i] = TypstItem{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			UnitAmount:  formatMinorUnits(item.UnitAmount),
			Amount:      formatMinorUnits(item.Amount),
		}
	}

	return TypstData{
		Title:         "Invoice " + data.InvoiceNumber,
		InvoiceNumber: data.InvoiceNumber,
		InvoiceID:     data.ID,
		CustomerID:    data.CustomerID,
		Status:        data.Status,
		Currency:      data.Currency,
		IssuedAt:      issuedAt,
		DueDate:       dueDate,
		Notes:         data.Notes,
		Subtotal:      formatMinorUnits(data.Subtotal),
		DiscountTotal: formatMinorUnits(data.DiscountTotal),
		TaxTotal:      formatMinorUnits(data.TaxTotal),
		Total:         formatMinorUnits(data.Total),
		AmountPaid:    formatMinorUnits(data.AmountPaid),
		AmountDue:     formatMinorUnits(data.AmountDue),
		Items:         items,
	}
}

// formatMinorUnits renders a minor-unit amount with two decimal places.
func formatMinorUnits(amount decimal.Decimal) string {
	return amount.Shift(-2).StringFixed(2)
}
