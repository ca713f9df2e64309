package model

// DocumentType is the classified contract category
type DocumentType string

const (
	DocNDA                   DocumentType = "nda"
	DocEmployment            DocumentType = "employment"
	DocFreelance             DocumentType = "freelance"
	DocIndependentContractor DocumentType = "independent_contractor"
	DocConsulting            DocumentType = "consulting"
	DocSaaS                  DocumentType = "saas"
	DocSoftwareLicense       DocumentType = "software_license"
	DocLease                 DocumentType = "lease"
	DocPartnership           DocumentType = "partnership"
	DocNonCompete            DocumentType = "non_compete"
	DocGeneral               DocumentType = "general"
)

// DocumentTypeResult is the classifier's best guess
type DocumentTypeResult struct {
	Type       DocumentType `json:"type"`
	Label      string       `json:"label"`
	Confidence float64      `json:"confidence"` // In [0,1]
}

// KeyTermKind classifies an extracted term
type KeyTermKind string

const (
	TermFinancial  KeyTermKind = "financial"
	TermDuration   KeyTermKind = "duration"
	TermPercentage KeyTermKind = "percentage"
)

// KeyTerm is a literal value pulled from the text
type KeyTerm struct {
	Kind  KeyTermKind `json:"kind"`
	Value string      `json:"value"`
}

// ObligationStrength distinguishes binding from advisory language
type ObligationStrength string

const (
	ObligationMandatory   ObligationStrength = "mandatory"
	ObligationRecommended ObligationStrength = "recommended"
)

// Obligation is a modal-verb phrase captured from the text
type Obligation struct {
	Text     string             `json:"text"`
	Strength ObligationStrength `json:"strength"`
}

// KeyFacts groups everything the fact extractor returns
type KeyFacts struct {
	KeyTerms    []KeyTerm    `json:"key_terms"`
	Dates       []string     `json:"dates"`
	Parties     []string     `json:"parties"`
	Obligations []Obligation `json:"obligations"`
}
