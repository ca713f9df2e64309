package rules

// YAML document shapes. These stay unexported; Load turns them into the
// compiled types above.

type redFlagsDoc struct {
	Standing struct {
		Severability standingEntry `yaml:"severability"`
	} `yaml:"standing"`
	Rules []redFlagEntry `yaml:"rules"`
}

type standingEntry struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Severity     string `yaml:"severity"`
	Token        string `yaml:"token"`
	Description  string `yaml:"description"`
	PlainEnglish string `yaml:"plain_english"`
}

type redFlagEntry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Severity     string   `yaml:"severity"`
	Patterns     []string `yaml:"patterns"`
	Description  string   `yaml:"description"`
	PlainEnglish string   `yaml:"plain_english"`
}

type clausesDoc struct {
	Rules []clauseEntry `yaml:"rules"`
}

type clauseEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Color       string   `yaml:"color"`
	Patterns    []string `yaml:"patterns"`
	Explanation string   `yaml:"explanation"`
	Alternative string   `yaml:"alternative"`
}

type docTypesDoc struct {
	Categories []categoryEntry `yaml:"categories"`
	General    categoryEntry   `yaml:"general"`
}

type categoryEntry struct {
	Key       string `yaml:"key"`
	Label     string `yaml:"label"`
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
}

type negotiationDoc struct {
	Generic struct {
		Tip            string   `yaml:"tip"`
		LeveragePoints []string `yaml:"leverage_points"`
	} `yaml:"generic"`
	Templates map[string]templateEntry `yaml:"templates"`
}

type templateEntry struct {
	Priority          string   `yaml:"priority"`
	SuggestedLanguage string   `yaml:"suggested_language"`
	Tip               string   `yaml:"tip"`
	LeveragePoints    []string `yaml:"leverage_points"`
}

type recommendationsDoc struct {
	Clean struct {
		Priority string `yaml:"priority"`
		Text     string `yaml:"text"`
	} `yaml:"clean"`
	Generic         string                         `yaml:"generic"`
	Recommendations map[string]recommendationEntry `yaml:"recommendations"`
}

type recommendationEntry struct {
	Priority string `yaml:"priority"`
	Text     string `yaml:"text"`
}
