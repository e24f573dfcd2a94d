package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/breakline"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type BookData struct {
	Name        string
	Description string
	OwnerName   string
	ExportedAt  string

	Recipes []RecipeData
}

type RecipeData struct {
	Title        string
	Description  string
	Category     string
	CookTime     string
	Servings     string
	Ingredients  []string
	Instructions []string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateBook(ctx context.Context, data interface{}) (io.Reader, error) {
	book, ok := data.(BookData)
	if !ok {
		return nil, fmt.Errorf("invalid data type for book PDF")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// Cover
	m.AddRow(20,
		text.NewCol(12, book.Name, props.Text{
			Size:  24,
			Style: fontstyle.Bold,
			Align: align.Center,
			Top:   5,
		}),
	)
	if book.Description != "" {
		m.AddRow(12,
			text.NewCol(12, book.Description, props.Text{
				Size:  11,
				Align: align.Center,
			}),
		)
	}
	m.AddRow(10,
		text.NewCol(12, "By "+book.OwnerName, props.Text{
			Size:  10,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Exported "+book.ExportedAt, props.Text{
			Size:  8,
			Align: align.Center,
		}),
	)

	for _, recipe := range book.Recipes {
		addRecipeRows(m, recipe)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func (p *PDFProvider) GenerateRecipeCard(ctx context.Context, data interface{}) (io.Reader, error) {
	recipe, ok := data.(RecipeData)
	if !ok {
		return nil, fmt.Errorf("invalid data type for recipe PDF")
	}

	m := maroto.New(config.NewBuilder().Build())
	addRecipeRows(m, recipe)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func addRecipeRows(m core.Maroto, recipe RecipeData) {
	m.AddRow(14,
		text.NewCol(12, recipe.Title, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Top:   4,
		}),
	)

	meta := recipe.Category
	if recipe.CookTime != "" {
		meta += "  |  " + recipe.CookTime
	}
	if recipe.Servings != "" {
		meta += "  |  Serves " + recipe.Servings
	}
	m.AddRow(8,
		text.NewCol(12, meta, props.Text{Size: 9}),
	)

	if recipe.Description != "" {
		m.AddRow(10,
			text.NewCol(12, recipe.Description, props.Text{
				Size:              9,
				BreakLineStrategy: breakline.EmptySpaceStrategy,
			}),
		)
	}

	m.AddRow(8,
		text.NewCol(12, "Ingredients", props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
	)
	for _, ingredient := range recipe.Ingredients {
		m.AddRow(6,
			col.New(1),
			text.NewCol(11, "- "+ingredient, props.Text{Size: 9}),
		)
	}

	m.AddRow(8,
		text.NewCol(12, "Instructions", props.Text{Style: fontstyle.Bold, Size: 11, Top: 2}),
	)
	for i, step := range recipe.Instructions {
		m.AddRow(8,
			col.New(1),
			text.NewCol(11, fmt.Sprintf("%d. %s", i+1, step), props.Text{
				Size:              9,
				BreakLineStrategy: breakline.EmptySpaceStrategy,
			}),
		)
	}
}
