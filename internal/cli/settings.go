package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauselens/internal/logging"
	"github.com/ppiankov/clauselens/internal/model"
)

// registerDefaults makes every config key known to viper so env vars resolve
func registerDefaults(v *viper.Viper) {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults(v, "", tree)
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// configureEnv maps CLAUSELENS_LLM_MODEL to llm.model and so on
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("CLAUSELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Omitted from the marshaled defaults, so bind them explicitly
	_ = v.BindEnv("llm.api_key")
	_ = v.BindEnv("llm.base_url")
}

// loadConfig merges defaults, config file and CLAUSELENS_* env vars
func loadConfig() (*model.Config, error) {
	return loadConfigFrom(viper.GetViper())
}

func loadConfigFrom(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Provider-native key variables, as the SDKs document them
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider == "openai" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the command logger; verbose lowers the level to debug
func newLogger(cfg *model.Config) (*logrus.Logger, error) {
	lc := cfg.Logging
	if cfg.Output.Verbose && lc.Level == "info" {
		lc.Level = "debug"
	}
	return logging.New(lc, os.Stderr)
}

// Flags shared by the analysis commands; applied only when set on the command line
var (
	noCache     bool
	noFooter    bool
	insecureTLS bool
	noRobots    bool
	allowPriv   bool
	httpProxy   string
	httpsProxy  string
	userAgent   string
	rulesDir    string
	llmProvider string
	llmModel    string
)

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "omit the disclaimer footer from reports")
	cmd.Flags().StringVar(&rulesDir, "rules", "", "load the rule catalog from this directory instead of the built-in one")
	cmd.Flags().StringVar(&llmProvider, "llm", "", "add an LLM plain-language digest (openai, ollama); never changes the score")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent for contract URLs")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().BoolVar(&noRobots, "ignore-robots", false, "do not consult robots.txt before fetching")
	cmd.Flags().BoolVar(&allowPriv, "allow-private", false, "allow contract URLs on loopback and private networks")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyFlags overrides config with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg *model.Config) {
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if changed("rules") {
		cfg.Rules.Dir = rulesDir
	}
	if changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if changed("ignore-robots") {
		cfg.HTTP.RespectRobots = !noRobots
	}
	if changed("allow-private") {
		cfg.HTTP.AllowPrivateHosts = allowPriv
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if changed("llm") {
		cfg.LLM.Provider = llmProvider
		if llmProvider == "openai" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if llmProvider == "ollama" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	if changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

// setup loads config, applies flags and builds the logger
func setup(cmd *cobra.Command) (*model.Config, *logrus.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	applyFlags(cmd, cfg)

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
