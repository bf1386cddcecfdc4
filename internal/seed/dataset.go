package seed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	DatasetSample     = "sample"
	DatasetProduction = "production"

	// ProductionMinimum is the entity count below which a production load
	// asks for confirmation before writing.
	ProductionMinimum = 5
)

// Dataset is a curated set of rows for one or both variants. Reports and
// reviews point at entities by their position in the same dataset.
type Dataset struct {
	Printers []PrinterRow `yaml:"printers"`
	Reports  []ReportRow  `yaml:"reports"`
	Spaces   []SpaceRow   `yaml:"spaces"`
	Reviews  []ReviewRow  `yaml:"reviews"`
}

// PrinterRow describes one printer to insert.
type PrinterRow struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Building string `yaml:"building"`
	Floor    string `yaml:"floor"`
}

// ReportRow is a status report for Printers[Printer].
type ReportRow struct {
	Printer    int    `yaml:"printer"`
	Status     string `yaml:"status"`
	PaperLevel *int   `yaml:"paper_level"`
	TonerLevel *int   `yaml:"toner_level"`
	Comments   string `yaml:"comments"`
	ReportedBy string `yaml:"reported_by"`
}

// SpaceRow describes one study space to insert.
type SpaceRow struct {
	Building    string `yaml:"building"`
	Sublocation string `yaml:"sublocation"`
	Description string `yaml:"description"`
}

// ReviewRow is a review of Spaces[Space]. ReportedBy is stored as the
// reviewer's NetID.
type ReviewRow struct {
	Space       int    `yaml:"space"`
	Rating      *int   `yaml:"rating"`
	Silence     *int   `yaml:"silence"`
	Crowdedness *int   `yaml:"crowdedness"`
	Review      string `yaml:"review"`
	ReportedBy  string `yaml:"reported_by"`
}

// EntityCount returns how many entities the dataset holds for variant.
func (d Dataset) EntityCount(variant domain.Variant) int {
	if variant == domain.VariantSpaces {
		return len(d.Spaces)
	}
	return len(d.Printers)
}

// ReportCount returns how many reports or reviews the dataset holds for
// variant.
func (d Dataset) ReportCount(variant domain.Variant) int {
	if variant == domain.VariantSpaces {
		return len(d.Reviews)
	}
	return len(d.Reports)
}

func (d Dataset) checkReferences(variant domain.Variant) error {
	if d.EntityCount(variant) == 0 {
		return fmt.Errorf("dataset has no %s", variant)
	}
	switch variant {
	case domain.VariantPrinters:
		for i, report := range d.Reports {
			if report.Printer < 0 || report.Printer >= len(d.Printers) {
				return fmt.Errorf("reports[%d]: printer %d does not exist", i, report.Printer)
			}
		}
	case domain.VariantSpaces:
		for i, review := range d.Reviews {
			if review.Space < 0 || review.Space >= len(d.Spaces) {
				return fmt.Errorf("reviews[%d]: space %d does not exist", i, review.Space)
			}
		}
	}
	return nil
}

// Builtin returns one of the datasets shipped with the binary.
func Builtin(name string) (Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DatasetSample:
		return sampleDataset(), nil
	case DatasetProduction:
		return productionDataset(), nil
	default:
		return Dataset{}, fmt.Errorf("unknown dataset %q (want %q or %q)", name, DatasetSample, DatasetProduction)
	}
}

// LoadFile reads a dataset from a YAML file. Unknown keys are rejected so a
// misspelt field does not silently seed empty values.
func LoadFile(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	var dataset Dataset
	if err := decoder.Decode(&dataset); err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, fmt.Errorf("dataset %s is empty", path)
		}
		return Dataset{}, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return dataset, nil
}

func level(value int) *int {
	return &value
}

func sampleDataset() Dataset {
	return Dataset{
		Printers: []PrinterRow{
			{Name: "Bobst Library - Main Floor Printer", Location: "Elmer Holmes Bobst Library - 1st Floor", Building: "Bobst Library", Floor: "1"},
			{Name: "Bobst Library - Second Floor Printer", Location: "Elmer Holmes Bobst Library - 2nd Floor", Building: "Bobst Library", Floor: "2"},
			{Name: "Kimmel Center - Student Lounge Printer", Location: "Kimmel Center for University Life - 2nd Floor Student Lounge", Building: "Kimmel Center", Floor: "2"},
			{Name: "Courant Institute - Computer Lab Printer", Location: "Warren Weaver Hall - Room 101", Building: "Courant Institute", Floor: "1"},
			{Name: "Tandon School - Rogers Hall Printer", Location: "Rogers Hall - 3rd Floor Computer Lab", Building: "Tandon School of Engineering", Floor: "3"},
			{Name: "Stern School - Tisch Hall Printer", Location: "Henry Kaufman Management Center - 2nd Floor", Building: "Stern School of Business", Floor: "2"},
			{Name: "Silver Center - Student Services Printer", Location: "Silver Center - 1st Floor Student Services", Building: "Silver Center", Floor: "1"},
			{Name: "Palladium - Residence Hall Printer", Location: "Palladium Athletic Facility - Lobby", Building: "Palladium", Floor: "1"},
			{Name: "Torch Club - Graduate Lounge Printer", Location: "Torch Club - Graduate Student Lounge", Building: "Torch Club", Floor: "2"},
			{Name: "Lipton Hall - Computer Lab Printer", Location: "Lipton Hall - Basement Computer Lab", Building: "Lipton Hall", Floor: "B"},
		},
		Reports: []ReportRow{
			{Printer: 0, Status: "available", PaperLevel: level(85), TonerLevel: level(70), Comments: "Working perfectly", ReportedBy: domain.AnonymousReporter},
			{Printer: 1, Status: "busy", PaperLevel: level(60), TonerLevel: level(45), Comments: "Currently printing a large job", ReportedBy: "Student"},
			{Printer: 2, Status: "available", PaperLevel: level(90), TonerLevel: level(80), Comments: "Recently refilled", ReportedBy: "Staff"},
		},
		Spaces: []SpaceRow{
			{Building: "Bobst Library", Sublocation: "LL1 Quiet Study", Description: "Silent floor with individual carrels"},
			{Building: "Bobst Library", Sublocation: "2nd Floor", Description: "Group tables near the windows"},
			{Building: "Kimmel Center", Sublocation: "8th Floor Lounge", Description: "Couches and a view of Washington Square"},
			{Building: "Courant Institute", Sublocation: "Warren Weaver Hall 1st Floor", Description: "Open seating next to the computer lab"},
			{Building: "Tandon School of Engineering", Sublocation: "Dibner Library", Description: "Reservable rooms and long tables"},
			{Building: "Stern School of Business", Sublocation: "Kaufman Center Atrium"},
			{Building: "Silver Center", Sublocation: "Lobby"},
			{Building: "Lipton Hall", Sublocation: "Basement Study Room", Description: "Residents only after 10pm"},
		},
	}
}

func productionDataset() Dataset {
	return Dataset{
		Printers: []PrinterRow{
			{Name: "Bobst Library - Ground Floor Reference Printer", Location: "Elmer Holmes Bobst Library - Ground Floor, Near Reference Desk", Building: "Bobst Library", Floor: "Ground"},
			{Name: "Bobst Library - 2nd Floor North Printer", Location: "Elmer Holmes Bobst Library - 2nd Floor, North Wing", Building: "Bobst Library", Floor: "2"},
			{Name: "Kimmel Center - Room 406 Computer Lab", Location: "Kimmel Center for University Life - Room 406", Building: "Kimmel Center", Floor: "4"},
		},
		Spaces: []SpaceRow{
			{Building: "Bobst Library", Sublocation: "LL2 Silent Study"},
			{Building: "Bobst Library", Sublocation: "5th Floor Reading Room"},
			{Building: "Kimmel Center", Sublocation: "Room 406 Study Area"},
		},
	}
}
