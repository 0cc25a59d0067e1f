package dataset

// LabelColumn is the outcome column of the reference dataset.
const LabelColumn = "HeartDisease"

// LabelUnknown marks rows without an outcome, such as a freshly collected record.
const LabelUnknown = -1

// Kind classifies how an input field is encoded.
type Kind int

const (
	KindNumeric Kind = iota
	KindOrdinal
	KindBinary
	KindNominal
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindOrdinal:
		return "ordinal"
	case KindBinary:
		return "binary"
	case KindNominal:
		return "nominal"
	default:
		return "unknown"
	}
}

// Field describes one input column. Min, Max and Default only apply to numeric fields.
type Field struct {
	Name    string
	Kind    Kind
	Min     int
	Max     int
	Default int
}

// Fields lists the input record in declaration order.
var Fields = []Field{
	{Name: "PhysicalHealth", Kind: KindNumeric, Min: 0, Max: 30, Default: 0},
	{Name: "MentalHealth", Kind: KindNumeric, Min: 0, Max: 30, Default: 0},
	{Name: "SleepTime", Kind: KindNumeric, Min: 0, Max: 24, Default: 7},
	{Name: "BMICategory", Kind: KindOrdinal},
	{Name: "Smoking", Kind: KindBinary},
	{Name: "AlcoholDrinking", Kind: KindBinary},
	{Name: "Stroke", Kind: KindBinary},
	{Name: "DiffWalking", Kind: KindBinary},
	{Name: "Sex", Kind: KindNominal},
	{Name: "AgeCategory", Kind: KindOrdinal},
	{Name: "Race", Kind: KindNominal},
	{Name: "Diabetic", Kind: KindNominal},
	{Name: "PhysicalActivity", Kind: KindBinary},
	{Name: "GenHealth", Kind: KindNominal},
	{Name: "Asthma", Kind: KindBinary},
	{Name: "KidneyDisease", Kind: KindBinary},
	{Name: "SkinCancer", Kind: KindBinary},
}

// OrdinalFields are rank-encoded.
var OrdinalFields = []string{"BMICategory", "AgeCategory"}

// OneHotFields are expanded into indicator columns, in this order.
var OneHotFields = []string{
	"Smoking", "AlcoholDrinking", "Stroke", "DiffWalking",
	"Sex", "Race", "Diabetic", "PhysicalActivity",
	"GenHealth", "Asthma", "KidneyDisease", "SkinCancer",
}

// BinaryValues is the fixed domain of yes/no fields.
var BinaryValues = []string{"No", "Yes"}

// LookupField returns the field definition for name.
func LookupField(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Record is one row of user-provided health indicators.
type Record struct {
	PhysicalHealth   int    `json:"PhysicalHealth"`
	MentalHealth     int    `json:"MentalHealth"`
	SleepTime        int    `json:"SleepTime"`
	BMICategory      string `json:"BMICategory"`
	Smoking          string `json:"Smoking"`
	AlcoholDrinking  string `json:"AlcoholDrinking"`
	Stroke           string `json:"Stroke"`
	DiffWalking      string `json:"DiffWalking"`
	Sex              string `json:"Sex"`
	AgeCategory      string `json:"AgeCategory"`
	Race             string `json:"Race"`
	Diabetic         string `json:"Diabetic"`
	PhysicalActivity string `json:"PhysicalActivity"`
	GenHealth        string `json:"GenHealth"`
	Asthma           string `json:"Asthma"`
	KidneyDisease    string `json:"KidneyDisease"`
	SkinCancer       string `json:"SkinCancer"`
}

// Number returns the value of a numeric field.
func (r Record) Number(name string) (int, bool) {
	p := r.intField(name)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Category returns the value of a categorical field.
func (r Record) Category(name string) (string, bool) {
	p := r.stringField(name)
	if p == nil {
		return "", false
	}
	return *p, true
}

func (r *Record) intField(name string) *int {
	switch name {
	case "PhysicalHealth":
		return &r.PhysicalHealth
	case "MentalHealth":
		return &r.MentalHealth
	case "SleepTime":
		return &r.SleepTime
	}
	return nil
}

func (r *Record) stringField(name string) *string {
	switch name {
	case "BMICategory":
		return &r.BMICategory
	case "Smoking":
		return &r.Smoking
	case "AlcoholDrinking":
		return &r.AlcoholDrinking
	case "Stroke":
		return &r.Stroke
	case "DiffWalking":
		return &r.DiffWalking
	case "Sex":
		return &r.Sex
	case "AgeCategory":
		return &r.AgeCategory
	case "Race":
		return &r.Race
	case "Diabetic":
		return &r.Diabetic
	case "PhysicalActivity":
		return &r.PhysicalActivity
	case "GenHealth":
		return &r.GenHealth
	case "Asthma":
		return &r.Asthma
	case "KidneyDisease":
		return &r.KidneyDisease
	case "SkinCancer":
		return &r.SkinCancer
	}
	return nil
}
