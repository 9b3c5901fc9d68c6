package models

// Editor identifies whoever submitted or changed a rental log.
type Editor struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

const AnonymousEditor = "anonymous"

// AnonymousSession is returned by the anonymous sign-in endpoint.
type AnonymousSession struct {
	Token     string `json:"token"`
	EditorID  string `json:"editor_id"`
	ExpiresAt int64  `json:"expires_at"`
}

// EditorSignIn is the body of the editor sign-in endpoint.
type EditorSignIn struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

// EditorSession is returned to a signed-in editor.
type EditorSession struct {
	Token  string `json:"token"`
	Editor Editor `json:"editor"`
}
