package config

// NewRulesForTest creates a Rules config pointing at a policy file
func NewRulesForTest(path string) *Rules {
	return &Rules{path: path}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret string) *Slack {
	return &Slack{
		botToken:      botToken,
		signingSecret: signingSecret,
	}
}
