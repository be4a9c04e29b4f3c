package model

// Issue holds the fields of a JIRA issue the browser displays and edits.
type Issue struct {
	Key         string `yaml:"key"` // e.g. "PROJ-123"
	Summary     string `yaml:"summary"`
	Status      string `yaml:"status"` // "To Do", "In Progress", "Done", ...
	Assignee    string `yaml:"assignee,omitempty"`
	Description string `yaml:"description"` // plain-text / markdown body
	URL         string `yaml:"url,omitempty"` // browse URL; derived from base URL when empty
}

// Done reports whether the issue is in a resolved status.
func (i Issue) Done() bool {
	switch i.Status {
	case "Done", "Closed", "Resolved":
		return true
	}
	return false
}
