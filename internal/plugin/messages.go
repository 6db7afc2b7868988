package plugin

// Inbound message types, as posted by the plugin UI.
const (
	MsgSaveConfig        = "SAVE_CONFIG"
	MsgSetAPIKey         = "SET_API_KEY"
	MsgSummarize         = "SUMMARIZE"
	MsgSummarizeComments = "SUMMARIZE_COMMENTS"
	MsgGetConfig         = "GET_CONFIG"
	MsgSaveOAuthToken    = "SAVE_OAUTH_TOKEN"
)

// Outbound message types, posted back to the UI.
const (
	MsgConfigRequired = "CONFIG_REQUIRED"
	MsgConfigSaved    = "CONFIG_SAVED"
	MsgConfigLoaded   = "CONFIG_LOADED"
	MsgOAuthRequired  = "OAUTH_REQUIRED"
	MsgSummaryResult  = "SUMMARY_RESULT"
	MsgSummaryError   = "SUMMARY_ERROR"
)

// UIConfig is the configuration object echoed to the settings page.
type UIConfig struct {
	APIKey string `json:"apiKey"`
}

// Message is one payload exchanged with the plugin UI over the bridge. Only
// the fields relevant to a given type are populated.
type Message struct {
	Type    string    `json:"type"`
	APIKey  string    `json:"apiKey,omitempty"`
	Token   string    `json:"token,omitempty"`
	AuthURL string    `json:"authUrl,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Message string    `json:"message,omitempty"`
	Config  *UIConfig `json:"config,omitempty"`
}

// Bridge delivers outbound messages to the plugin UI.
type Bridge interface {
	Post(msg Message)
}
