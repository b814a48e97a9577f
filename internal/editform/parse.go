package editform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

type document struct {
	Title          *string `toml:"title"`
	Author         *string `toml:"author"`
	Narrator       *string `toml:"narrator"`
	Series         *string `toml:"series"`
	SeriesPosition *int64  `toml:"series_position"`
	Year           *int64  `toml:"year"`
	Description    *string `toml:"description"`
	Publisher      *string `toml:"publisher"`
	Genre          *string `toml:"genre"`
	ISBN           *string `toml:"isbn"`
	ASIN           *string `toml:"asin"`
}

// Parse reads an edited document. Keys outside the tracked fields are
// rejected and blank strings leave the field unset.
func Parse(text string) (metadata.Record, error) {
	var doc document
	decoder := toml.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return metadata.Record{}, services.Wrap(services.ErrValidation, "edit", "parse form", "unknown field", errors.New(strict.String()))
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return metadata.Record{}, services.Wrap(services.ErrValidation, "edit", "parse form",
				fmt.Sprintf("invalid TOML at line %d, column %d", row, col), err)
		}
		return metadata.Record{}, services.Wrap(services.ErrValidation, "edit", "parse form", "invalid TOML", err)
	}

	record := metadata.Record{
		Title:       optional(doc.Title),
		Author:      optional(doc.Author),
		Narrator:    optional(doc.Narrator),
		Series:      optional(doc.Series),
		Description: optional(doc.Description),
		Publisher:   optional(doc.Publisher),
		Genre:       optional(doc.Genre),
		ISBN:        optional(doc.ISBN),
		ASIN:        optional(doc.ASIN),
	}
	numbers := []struct {
		field metadata.Field
		value *int64
	}{
		{metadata.FieldSeriesPosition, doc.SeriesPosition},
		{metadata.FieldYear, doc.Year},
	}
	for _, n := range numbers {
		field, value := n.field, n.value
		if value == nil {
			continue
		}
		if *value < 0 || *value > int64(^uint32(0)) {
			return metadata.Record{}, services.Wrap(services.ErrValidation, "edit", "parse form",
				fmt.Sprintf("%s out of range: %d", field, *value), nil)
		}
		if err := record.Set(field, strconv.FormatInt(*value, 10)); err != nil {
			return metadata.Record{}, services.Wrap(services.ErrValidation, "edit", "parse form", err.Error(), nil)
		}
	}
	return record, nil
}

func optional(value *string) *string {
	if value == nil {
		return nil
	}
	return metadata.Text(*value)
}
