package services

import (
	_ "embed"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	ShoppingListTitle    = "Shopping list"
	ShoppingListFilename = "shopping_list.pdf"
	EmptyShoppingList    = "Your shopping list is empty."
)

const shoppingListFont = "listfont"

// DejaVu Sans Condensed covers Latin and Cyrillic, which every measurement
// unit and catalog ingredient name is written in.
//
//go:embed fonts/DejaVuSansCondensed.ttf
var defaultFontTTF []byte

// ShoppingListRenderer writes shopping lists as PDF documents. Text is set in
// the embedded DejaVu font unless FontPath names another TrueType file.
type ShoppingListRenderer struct {
	FontPath string
	Now      func() time.Time
}

func NewShoppingListRenderer(fontPath string) ShoppingListRenderer {
	return ShoppingListRenderer{FontPath: fontPath, Now: time.Now}
}

// FormatShoppingListLine renders one entry as "<name> (<unit>) — <amount>"
func FormatShoppingListLine(item ShoppingListItem) string {
	return fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.Amount)
}

// Render writes a PDF listing items to w
func (r ShoppingListRenderer) Render(w io.Writer, items []ShoppingListItem) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(ShoppingListTitle, true)
	pdf.SetCreator("foodgram", true)
	if r.Now != nil {
		pdf.SetCreationDate(r.Now())
	}

	if r.FontPath != "" {
		pdf.AddUTF8Font(shoppingListFont, "", r.FontPath)
	} else {
		pdf.AddUTF8FontFromBytes(shoppingListFont, "", defaultFontTTF)
	}

	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont(shoppingListFont, "", 18)
	pdf.CellFormat(0, 12, ShoppingListTitle, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(shoppingListFont, "", 12)
	if len(items) == 0 {
		pdf.CellFormat(0, 8, EmptyShoppingList, "", 1, "L", false, 0, "")
	}
	for i, item := range items {
		line := fmt.Sprintf("%d. %s", i+1, FormatShoppingListLine(item))
		pdf.MultiCell(0, 8, line, "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render shopping list: %w", err)
	}
	return pdf.Output(w)
}
