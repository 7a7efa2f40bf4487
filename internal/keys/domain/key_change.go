package domain

// KeyField names the half of a keypair that changed.
type KeyField string

const (
	// FieldPrivateKey is reported when the private key is set, generated or cleared.
	FieldPrivateKey KeyField = "private_key"
	// FieldPublicKey is reported when the public key is derived or set directly.
	FieldPublicKey KeyField = "public_key"
)

// KeyChange is delivered to observers after a key mutation has been applied.
// PublicKey is empty when no public key is held yet.
type KeyChange struct {
	Field     KeyField
	PublicKey []byte
}

// Observer receives key change notifications.
type Observer interface {
	OnKeyChange(change KeyChange)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(change KeyChange)

// OnKeyChange calls f(change).
func (f ObserverFunc) OnKeyChange(change KeyChange) {
	f(change)
}
