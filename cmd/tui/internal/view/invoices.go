package view

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/unitrack/internal/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/invoice/itemcsv"
	"github.com/MrJamesThe3rd/unitrack/internal/reference"
)

type invoiceState int

const (
	invoiceStateImport invoiceState = iota
	invoiceStateForm
	invoiceStateDone
)

var (
	paymentMethods = []string{"Cash", "Bank Transfer", "Card", "Cheque"}
	paymentTypes   = []string{"Full", "Installment", "Deposit"}
)

// invoiceFields holds the form bindings behind a pointer so they outlive model copies.
type invoiceFields struct {
	csvPath string

	studentID     string
	universityID  string
	paymentMethod string
	paymentType   string
	amount        string
	taxRate       string
	discount      string
	dueDate       string
	notes         string
	items         string
}

type InvoiceModel struct {
	CommonModel
	service    *invoice.Service
	references *reference.Service
	operatorID uuid.UUID

	state   invoiceState
	form    *huh.Form
	fields  *invoiceFields
	options map[reference.Kind][]reference.Option

	submitting bool
	created    *invoice.Invoice
	status     string
}

func NewInvoiceModel(svc *invoice.Service, refs *reference.Service, operatorID uuid.UUID) InvoiceModel {
	m := InvoiceModel{
		service:    svc,
		references: refs,
		operatorID: operatorID,
		fields: &invoiceFields{
			paymentMethod: paymentMethods[0],
			paymentType:   paymentTypes[0],
			taxRate:       "0",
		},
	}
	m.form = m.importForm()

	return m
}

func (m InvoiceModel) Title() string { return "New Invoice" }

func (m InvoiceModel) ShortHelp() string {
	if m.state == invoiceStateDone {
		return "Esc: back | n: another invoice"
	}

	return "Esc: back | Enter/Tab: navigate form"
}

func (m InvoiceModel) Init() tea.Cmd {
	return tea.Batch(m.form.Init(), m.loadOptionsCmd())
}

func (m InvoiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invoiceOptionsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading options: %v", msg.err)
		}

		m.options = msg.options

		return m, nil

	case invoiceCreatedMsg:
		m.submitting = false

		if msg.err != nil {
			// The bindings still hold what was typed, so a fresh form keeps it.
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.form = m.invoiceForm()

			return m, m.form.Init()
		}

		m.created = msg.invoice
		m.state = invoiceStateDone
		m.status = ""

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.state == invoiceStateDone {
			if msg.String() == "n" {
				return m.reset()
			}

			return m, nil
		}
	}

	if m.submitting || m.state == invoiceStateDone {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case invoiceStateImport:
		if err := m.fields.importItems(); err != nil {
			m.status = fmt.Sprintf("Error importing items: %v", err)
		}

		m.state = invoiceStateForm
		m.form = m.invoiceForm()

		return m, m.form.Init()

	case invoiceStateForm:
		m.submitting = true
		m.status = "Saving..."

		return m, m.submitCmd()
	}

	return m, nil
}

func (m InvoiceModel) reset() (tea.Model, tea.Cmd) {
	*m.fields = invoiceFields{
		paymentMethod: paymentMethods[0],
		paymentType:   paymentTypes[0],
		taxRate:       "0",
	}
	m.created = nil
	m.state = invoiceStateImport
	m.form = m.importForm()

	return m, m.form.Init()
}

func (m InvoiceModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.state == invoiceStateDone && m.created != nil {
		totals := m.created.Totals()

		return style.Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("Invoice Created!"),
			"",
			fmt.Sprintf("ID:          %s", m.created.ID),
			fmt.Sprintf("Grand Total: %s", FormatMoney(totals.GrandTotal)),
			"",
			"(n for another invoice, Esc to back)",
		))
	}

	content := m.form.View()

	if m.state == invoiceStateForm {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, m.totalsPanel())
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n\n" + content
	}

	return style.Render(content)
}

// totalsPanel recomputes totals from the current bindings on every render.
func (m InvoiceModel) totalsPanel() string {
	items := parseItemLines(m.fields.items)
	totals := invoice.ComputeTotals(
		items,
		invoice.ParseAmount(m.fields.amount),
		invoice.ParseAmount(m.fields.taxRate),
		invoice.ParseAmount(m.fields.discount),
	)

	var b strings.Builder

	for _, li := range items {
		if li.IsEmpty() {
			continue
		}

		fmt.Fprintf(&b, "%-24s %10s\n", li.Description, FormatMoney(li.Amount))
	}

	fmt.Fprintf(&b, "\nSubtotal:    %s\nTax:         %s\nGrand Total: %s",
		FormatMoney(totals.Subtotal),
		FormatMoney(totals.TaxAmount),
		activeStyle(FormatMoney(totals.GrandTotal)),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		MarginLeft(2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Width(44).
		Render(b.String())
}

func (m InvoiceModel) importForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Items CSV").
				Description("Optional. Leave blank to type items by hand.").
				Placeholder("./items.csv").
				Value(&m.fields.csvPath),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m InvoiceModel) selectOptions(kind reference.Kind) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(m.options[kind]))
	for _, o := range m.options[kind] {
		opts = append(opts, huh.NewOption(o.Label, o.Value.String()))
	}

	return opts
}

func (m InvoiceModel) invoiceForm() *huh.Form {
	rates := make([]huh.Option[string], 0, len(invoice.TaxRates))
	for _, r := range invoice.TaxRates {
		s := strconv.FormatInt(r, 10)
		rates = append(rates, huh.NewOption(s+"%", s))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Student").
				Options(m.selectOptions(reference.KindStudents)...).
				Value(&m.fields.studentID).
				Validate(requiredChoice),
			huh.NewSelect[string]().
				Title("University").
				Options(m.selectOptions(reference.KindUniversities)...).
				Value(&m.fields.universityID).
				Validate(requiredChoice),
			huh.NewSelect[string]().
				Title("Payment Method").
				Options(huh.NewOptions(paymentMethods...)...).
				Value(&m.fields.paymentMethod),
			huh.NewSelect[string]().
				Title("Payment Type").
				Options(huh.NewOptions(paymentTypes...)...).
				Value(&m.fields.paymentType),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Items").
				Description("One per line: description | quantity | unit price").
				Value(&m.fields.items),
			huh.NewInput().
				Title("Amount").
				Description("Used only when there are no items").
				Value(&m.fields.amount),
			huh.NewSelect[string]().
				Title("Tax Rate").
				Options(rates...).
				Value(&m.fields.taxRate),
			huh.NewInput().
				Title("Discount").
				Value(&m.fields.discount),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fields.dueDate).
				Validate(optionalDate),
			huh.NewText().
				Title("Notes").
				Value(&m.fields.notes),
		),
	).WithWidth(50).WithShowHelp(false)
}

// parseItemLines reads "description | quantity | unit price" lines.
// Missing columns read as blank, which the forgiving parse turns into zero.
func parseItemLines(s string) []invoice.LineItem {
	var items []invoice.LineItem

	for line := range strings.SplitSeq(s, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.SplitN(line, "|", 3)
		for len(parts) < 3 {
			parts = append(parts, "")
		}

		items = append(items, invoice.NewLineItem(parts[0], parts[1], parts[2]))
	}

	return items
}

func formatItemLines(items []invoice.LineItem) string {
	lines := make([]string, 0, len(items))
	for _, li := range items {
		lines = append(lines, fmt.Sprintf("%s | %s | %s", li.Description, li.Quantity.String(), li.UnitPrice.String()))
	}

	return strings.Join(lines, "\n")
}

// importItems replaces the typed items with those read from csvPath, if set.
func (f *invoiceFields) importItems() error {
	path := strings.TrimSpace(f.csvPath)
	if path == "" {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	items, err := itemcsv.Parse(file)
	if err != nil {
		return err
	}

	f.items = formatItemLines(items)

	return nil
}

func (f invoiceFields) form() (invoice.Form, error) {
	var form invoice.Form

	if f.studentID != "" {
		id, err := uuid.Parse(f.studentID)
		if err != nil {
			return form, fmt.Errorf("student: %w", err)
		}

		form.StudentID = id
	}

	if f.universityID != "" {
		id, err := uuid.Parse(f.universityID)
		if err != nil {
			return form, fmt.Errorf("university: %w", err)
		}

		form.UniversityID = id
	}

	form.PaymentMethod = f.paymentMethod
	form.PaymentType = f.paymentType
	form.FlatAmount = invoice.ParseAmount(f.amount)
	form.TaxRate = invoice.ParseAmount(f.taxRate)
	form.Discount = invoice.ParseAmount(f.discount)
	form.Notes = f.notes

	if s := strings.TrimSpace(f.dueDate); s != "" {
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return form, errors.New("due date must be YYYY-MM-DD")
		}

		form.DueDate = &d
	}

	return form, nil
}

// Messages

type invoiceOptionsMsg struct {
	options map[reference.Kind][]reference.Option
	err     error
}

func (m InvoiceModel) loadOptionsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		options := make(map[reference.Kind][]reference.Option, 2)

		for _, kind := range []reference.Kind{reference.KindStudents, reference.KindUniversities} {
			opts, err := m.references.Options(ctx, kind)
			if err != nil {
				return invoiceOptionsMsg{options: options, err: err}
			}

			options[kind] = opts
		}

		return invoiceOptionsMsg{options: options}
	}
}

type invoiceCreatedMsg struct {
	invoice *invoice.Invoice
	err     error
}

func (m InvoiceModel) submitCmd() tea.Cmd {
	f := *m.fields

	return func() tea.Msg {
		form, err := f.form()
		if err != nil {
			return invoiceCreatedMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		inv, err := m.service.Create(ctx, form, parseItemLines(f.items), m.operatorID)

		return invoiceCreatedMsg{invoice: inv, err: err}
	}
}
