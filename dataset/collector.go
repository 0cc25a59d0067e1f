package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidChoice is returned when a categorical input is not one of the offered options.
var ErrInvalidChoice = errors.New("invalid choice")

// NumericRange bounds a numeric form input.
type NumericRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// Clamp forces v into [Min, Max].
func (r NumericRange) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Choices holds the options offered for every form field.
type Choices struct {
	Options map[string][]string     `json:"options"`
	Numeric map[string]NumericRange `json:"numeric"`
}

// BuildChoices derives the form options from the reference table. Nominal
// fields keep first-seen order, ordinal fields are sorted ascending and
// binary fields are always No, Yes.
func BuildChoices(t *Table) Choices {
	c := Choices{
		Options: make(map[string][]string),
		Numeric: make(map[string]NumericRange),
	}
	for _, f := range Fields {
		switch f.Kind {
		case KindNumeric:
			c.Numeric[f.Name] = NumericRange{Min: f.Min, Max: f.Max, Default: f.Default}
		case KindOrdinal:
			c.Options[f.Name] = t.Distinct(f.Name)
		case KindBinary:
			c.Options[f.Name] = append([]string(nil), BinaryValues...)
		case KindNominal:
			c.Options[f.Name] = t.Unique(f.Name)
		}
	}
	return c
}

// FormInput is the raw submission. Omitted numbers take their default and
// omitted categories take the first option.
type FormInput struct {
	PhysicalHealth   *int   `json:"PhysicalHealth,omitempty"`
	MentalHealth     *int   `json:"MentalHealth,omitempty"`
	SleepTime        *int   `json:"SleepTime,omitempty"`
	BMICategory      string `json:"BMICategory,omitempty"`
	Smoking          string `json:"Smoking,omitempty"`
	AlcoholDrinking  string `json:"AlcoholDrinking,omitempty"`
	Stroke           string `json:"Stroke,omitempty"`
	DiffWalking      string `json:"DiffWalking,omitempty"`
	Sex              string `json:"Sex,omitempty"`
	AgeCategory      string `json:"AgeCategory,omitempty"`
	Race             string `json:"Race,omitempty"`
	Diabetic         string `json:"Diabetic,omitempty"`
	PhysicalActivity string `json:"PhysicalActivity,omitempty"`
	GenHealth        string `json:"GenHealth,omitempty"`
	Asthma           string `json:"Asthma,omitempty"`
	KidneyDisease    string `json:"KidneyDisease,omitempty"`
	SkinCancer       string `json:"SkinCancer,omitempty"`
}

// Collect turns a form submission into a record restricted to the offered choices.
func Collect(in FormInput, c Choices) (Record, error) {
	rec := Record{
		BMICategory:      in.BMICategory,
		Smoking:          in.Smoking,
		AlcoholDrinking:  in.AlcoholDrinking,
		Stroke:           in.Stroke,
		DiffWalking:      in.DiffWalking,
		Sex:              in.Sex,
		AgeCategory:      in.AgeCategory,
		Race:             in.Race,
		Diabetic:         in.Diabetic,
		PhysicalActivity: in.PhysicalActivity,
		GenHealth:        in.GenHealth,
		Asthma:           in.Asthma,
		KidneyDisease:    in.KidneyDisease,
		SkinCancer:       in.SkinCancer,
	}
	numbers := map[string]*int{
		"PhysicalHealth": in.PhysicalHealth,
		"MentalHealth":   in.MentalHealth,
		"SleepTime":      in.SleepTime,
	}

	for _, f := range Fields {
		if f.Kind == KindNumeric {
			bounds, ok := c.Numeric[f.Name]
			if !ok {
				bounds = NumericRange{Min: f.Min, Max: f.Max, Default: f.Default}
			}
			v := bounds.Default
			if p := numbers[f.Name]; p != nil {
				v = bounds.Clamp(*p)
			}
			*rec.intField(f.Name) = v
			continue
		}

		options := c.Options[f.Name]
		if len(options) == 0 {
			return Record{}, fmt.Errorf("%w: no options for %s", ErrInvalidChoice, f.Name)
		}
		p := rec.stringField(f.Name)
		*p = normalize(*p)
		if *p == "" {
			*p = options[0]
			continue
		}
		if !slices.Contains(options, *p) {
			return Record{}, fmt.Errorf("%w: %s=%q", ErrInvalidChoice, f.Name, *p)
		}
	}
	return rec, nil
}
