package generation

import (
	"github.com/papercomputeco/ragline/pkg/category"
)

// Schema names one of the structured answer variants.
type Schema string

const (
	SchemaDocumentSummary Schema = "DocumentSummary"
	SchemaFilmInfo        Schema = "FilmInfo"
	SchemaBookInfo        Schema = "BookInfo"
	SchemaPersonInfo      Schema = "PersonInfo"
	SchemaGeneralInfo     Schema = "GeneralInfo"
)

// DocumentSummary summarizes a single document.
type DocumentSummary struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type FilmInfo struct {
	Title       string   `json:"title"`
	Director    string   `json:"director"`
	ReleaseYear string   `json:"release_year"`
	PlotSummary string   `json:"plot_summary"`
	Cast        []string `json:"cast"`
	Genre       []string `json:"genre"`
	IMDbRating  string   `json:"imdb_rating"`
}

type BookInfo struct {
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	PublicationYear string   `json:"publication_year"`
	Summary         string   `json:"summary"`
	Genre           []string `json:"genre"`
	PageCount       string   `json:"page_count"`
}

type PersonInfo struct {
	Name         string   `json:"name"`
	BirthDate    string   `json:"birth_date"`
	DeathDate    string   `json:"death_date"`
	Nationality  string   `json:"nationality"`
	Occupation   []string `json:"occupation"`
	Achievements []string `json:"achievements"`
	Biography    string   `json:"biography"`
}

// GeneralInfo answers queries without a topical category.
type GeneralInfo struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Field describes one key of a schema's JSON object.
type Field struct {
	Name        string
	List        bool
	Description string
}

var schemaFields = map[Schema][]Field{
	SchemaDocumentSummary: {
		{Name: "title", Description: "document title"},
		{Name: "summary", Description: "short summary of the document"},
		{Name: "key_points", List: true, Description: "the most important points"},
	},
	SchemaFilmInfo: {
		{Name: "title", Description: "film title"},
		{Name: "director", Description: "director of the film"},
		{Name: "release_year", Description: "year of release"},
		{Name: "plot_summary", Description: "short plot summary"},
		{Name: "cast", List: true, Description: "main cast members"},
		{Name: "genre", List: true, Description: "film genres"},
		{Name: "imdb_rating", Description: "IMDb rating, if known"},
	},
	SchemaBookInfo: {
		{Name: "title", Description: "book title"},
		{Name: "author", Description: "author of the book"},
		{Name: "publication_year", Description: "year of publication"},
		{Name: "summary", Description: "short summary of the book"},
		{Name: "genre", List: true, Description: "book genres"},
		{Name: "page_count", Description: "number of pages, if known"},
	},
	SchemaPersonInfo: {
		{Name: "name", Description: "full name"},
		{Name: "birth_date", Description: "date of birth"},
		{Name: "death_date", Description: "date of death, empty if alive"},
		{Name: "nationality", Description: "nationality"},
		{Name: "occupation", List: true, Description: "occupations"},
		{Name: "achievements", List: true, Description: "notable achievements"},
		{Name: "biography", Description: "short biography"},
	},
	SchemaGeneralInfo: {
		{Name: "title", Description: "short title for the answer"},
		{Name: "summary", Description: "answer to the question"},
		{Name: "key_points", List: true, Description: "supporting points"},
	},
}

// Fields returns the keys of s, or nil for an unknown schema.
func (s Schema) Fields() []Field {
	return schemaFields[s]
}

// Valid reports whether s is a known schema.
func (s Schema) Valid() bool {
	_, ok := schemaFields[s]
	return ok
}

func (s Schema) target() any {
	switch s {
	case SchemaDocumentSummary:
		return &DocumentSummary{}
	case SchemaFilmInfo:
		return &FilmInfo{}
	case SchemaBookInfo:
		return &BookInfo{}
	case SchemaPersonInfo:
		return &PersonInfo{}
	default:
		return &GeneralInfo{}
	}
}

// SchemaFor picks the answer variant for a query category.
func SchemaFor(c category.Category) Schema {
	switch c {
	case category.Film:
		return SchemaFilmInfo
	case category.Book:
		return SchemaBookInfo
	case category.Person:
		return SchemaPersonInfo
	default:
		return SchemaGeneralInfo
	}
}
