package providers

import "regexp"

const (
	OpenAI        ID = "openai"
	Anthropic     ID = "anthropic"
	GoogleAI      ID = "google_ai"
	Mistral       ID = "mistral"
	Groq          ID = "groq"
	HuggingFace   ID = "huggingface"
	Replicate     ID = "replicate"
	ElevenLabs    ID = "elevenlabs"
	HomeAssistant ID = "home_assistant"
	PhilipsHue    ID = "philips_hue"
	SmartThings   ID = "smartthings"
	GoogleDrive   ID = "google_drive"
	Dropbox       ID = "dropbox"
	AWSS3         ID = "aws_s3"
	GitHub        ID = "github"
	GitLab        ID = "gitlab"
	Vercel        ID = "vercel"
	Netlify       ID = "netlify"
	Supabase      ID = "supabase"
)

var (
	openAIKey      = regexp.MustCompile(`^sk-[A-Za-z0-9_\-]{3,}$`)
	anthropicKey   = regexp.MustCompile(`^sk-ant-[A-Za-z0-9_\-]{3,}$`)
	googleAPIKey   = regexp.MustCompile(`^AIza[0-9A-Za-z_\-]{35}$`)
	groqKey        = regexp.MustCompile(`^gsk_[A-Za-z0-9]{20,}$`)
	hfToken        = regexp.MustCompile(`^hf_[A-Za-z0-9]{20,}$`)
	replicateToken = regexp.MustCompile(`^r8_[A-Za-z0-9]{20,}$`)
	githubToken    = regexp.MustCompile(`^(ghp|gho|ghu|ghs|github_pat)_[A-Za-z0-9_]{20,}$`)
	gitlabToken    = regexp.MustCompile(`^glpat-[A-Za-z0-9_\-]{20,}$`)
	awsAccessKey   = regexp.MustCompile(`^(AKIA|ASIA)[A-Z0-9]{16}$`)
	awsRegion      = regexp.MustCompile(`^[a-z]{2}(-gov)?-[a-z]+-\d$`)
	s3Bucket       = regexp.MustCompile(`^[a-z0-9][a-z0-9.\-]{1,61}[a-z0-9]$`)
	uuidLike       = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hueUsername    = regexp.MustCompile(`^[A-Za-z0-9\-]{20,}$`)
	googleClientID = regexp.MustCompile(`^[0-9]+-[a-z0-9]+\.apps\.googleusercontent\.com$`)
)

func apiKeyField(label, placeholder string, pattern *regexp.Regexp) Field {
	return Field{
		Key:         "apiKey",
		Label:       label,
		Type:        FieldPassword,
		Required:    true,
		Placeholder: placeholder,
		Pattern:     pattern,
	}
}

// Catalog returns the built-in provider declarations.
func Catalog() []Config {
	return []Config{
		{
			Provider: OpenAI,
			Name:     "OpenAI",
			Category: CategoryAI,
			Fields: []Field{
				apiKeyField("API Key", "sk-...", openAIKey),
				{Key: "organization", Label: "Organization ID", Type: FieldText, Placeholder: "org-..."},
			},
		},
		{
			Provider: Anthropic,
			Name:     "Anthropic",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("API Key", "sk-ant-...", anthropicKey)},
		},
		{
			Provider: GoogleAI,
			Name:     "Google AI Studio",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("API Key", "AIza...", googleAPIKey)},
		},
		{
			Provider: Mistral,
			Name:     "Mistral AI",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("API Key", "", nil)},
		},
		{
			Provider: Groq,
			Name:     "Groq",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("API Key", "gsk_...", groqKey)},
		},
		{
			Provider: HuggingFace,
			Name:     "Hugging Face",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("Access Token", "hf_...", hfToken)},
		},
		{
			Provider: Replicate,
			Name:     "Replicate",
			Category: CategoryAI,
			Fields:   []Field{apiKeyField("API Token", "r8_...", replicateToken)},
		},
		{
			Provider: ElevenLabs,
			Name:     "ElevenLabs",
			Category: CategoryAI,
			Fields: []Field{
				apiKeyField("API Key", "", nil),
				{Key: "voiceId", Label: "Default Voice ID", Type: FieldText},
			},
		},
		{
			Provider: HomeAssistant,
			Name:     "Home Assistant",
			Category: CategorySmartHome,
			Fields: []Field{
				{Key: "baseUrl", Label: "Instance URL", Type: FieldURL, Required: true, Placeholder: "http://homeassistant.local:8123"},
				{Key: "accessToken", Label: "Long-Lived Access Token", Type: FieldPassword, Required: true},
			},
		},
		{
			Provider: PhilipsHue,
			Name:     "Philips Hue",
			Category: CategorySmartHome,
			Fields: []Field{
				{Key: "bridgeIp", Label: "Bridge Address", Type: FieldText, Required: true, Placeholder: "192.168.1.2",
					Pattern: regexp.MustCompile(`^[A-Za-z0-9.\-:]+$`)},
				{Key: "username", Label: "Application Key", Type: FieldPassword, Required: true, Pattern: hueUsername},
			},
		},
		{
			Provider: SmartThings,
			Name:     "SmartThings",
			Category: CategorySmartHome,
			Fields: []Field{
				{Key: "accessToken", Label: "Personal Access Token", Type: FieldPassword, Required: true, Pattern: uuidLike},
				{Key: "locationId", Label: "Location ID", Type: FieldText, Pattern: uuidLike},
			},
		},
		{
			Provider: GoogleDrive,
			Name:     "Google Drive",
			Category: CategoryCloudStorage,
			Fields: []Field{
				{Key: "clientId", Label: "OAuth Client ID", Type: FieldText, Required: true, Pattern: googleClientID},
				{Key: "clientSecret", Label: "OAuth Client Secret", Type: FieldPassword, Required: true},
				{Key: "refreshToken", Label: "Refresh Token", Type: FieldPassword, Required: true},
			},
		},
		{
			Provider: Dropbox,
			Name:     "Dropbox",
			Category: CategoryCloudStorage,
			Fields: []Field{
				{Key: "appKey", Label: "App Key", Type: FieldText, Required: true},
				{Key: "appSecret", Label: "App Secret", Type: FieldPassword, Required: true},
				{Key: "refreshToken", Label: "Refresh Token", Type: FieldPassword, Required: true},
			},
		},
		{
			Provider: AWSS3,
			Name:     "Amazon S3",
			Category: CategoryCloudStorage,
			Fields: []Field{
				{Key: "accessKeyId", Label: "Access Key ID", Type: FieldText, Required: true, Pattern: awsAccessKey},
				{Key: "secretAccessKey", Label: "Secret Access Key", Type: FieldPassword, Required: true,
					Pattern: regexp.MustCompile(`^[A-Za-z0-9/+=]{40}$`)},
				{Key: "region", Label: "Region", Type: FieldText, Required: true, Placeholder: "us-east-1", Pattern: awsRegion},
				{Key: "bucket", Label: "Bucket", Type: FieldText, Pattern: s3Bucket},
			},
		},
		{
			Provider: GitHub,
			Name:     "GitHub",
			Category: CategoryDevTools,
			Fields: []Field{
				{Key: "token", Label: "Personal Access Token", Type: FieldPassword, Required: true, Pattern: githubToken},
			},
		},
		{
			Provider: GitLab,
			Name:     "GitLab",
			Category: CategoryDevTools,
			Fields: []Field{
				{Key: "token", Label: "Personal Access Token", Type: FieldPassword, Required: true, Pattern: gitlabToken},
				{Key: "baseUrl", Label: "Instance URL", Type: FieldURL, Placeholder: "https://gitlab.com"},
			},
		},
		{
			Provider: Vercel,
			Name:     "Vercel",
			Category: CategoryDevTools,
			Fields: []Field{
				{Key: "token", Label: "Access Token", Type: FieldPassword, Required: true},
				{Key: "teamId", Label: "Team ID", Type: FieldText, Pattern: regexp.MustCompile(`^team_[A-Za-z0-9]+$`)},
			},
		},
		{
			Provider: Netlify,
			Name:     "Netlify",
			Category: CategoryDevTools,
			Fields: []Field{
				{Key: "token", Label: "Personal Access Token", Type: FieldPassword, Required: true},
			},
		},
		{
			Provider: Supabase,
			Name:     "Supabase",
			Category: CategoryDevTools,
			Fields: []Field{
				{Key: "url", Label: "Project URL", Type: FieldURL, Required: true, Placeholder: "https://xyz.supabase.co"},
				{Key: "anonKey", Label: "Anon Key", Type: FieldPassword, Required: true},
				{Key: "serviceRoleKey", Label: "Service Role Key", Type: FieldPassword},
				{Key: "region", Label: "Region", Type: FieldSelect, Options: []string{"us-east-1", "us-west-1", "eu-central-1", "ap-southeast-1"}},
			},
		},
	}
}

var defaultRegistry = mustRegistry(Catalog()...)

func mustRegistry(configs ...Config) *Registry {
	r, err := NewRegistry(configs...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry built from Catalog.
func Default() *Registry {
	return defaultRegistry
}
