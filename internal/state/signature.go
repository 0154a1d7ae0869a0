package state

import (
	"encoding/json"
	"fmt"

	"github.com/statevault/statevault/internal/crypto"
	"github.com/statevault/statevault/internal/models"
)

// Sign computes the integrity signature of st under password and stores
// it in the state's signature field. The signature is a keyed MAC over
// the canonical serialized state with the signature field itself reset
// to a default container, so the tag never covers its own bytes.
func Sign(st *models.State, password []byte) error {
	payload, err := serializeUnsigned(st)
	if err != nil {
		return err
	}

	signature, err := crypto.NewValue(payload, crypto.ModeSignatureHash, password, nil)
	if err != nil {
		return fmt.Errorf("sign state: %w", err)
	}

	st.Settings.Security.Signature.Assign(signature)
	return nil
}

// Check verifies the stored signature of st against password. A mismatch
// means the persisted state was tampered with or corrupted; the caller
// must abort the load rather than trust any of it.
func Check(st *models.State, password []byte) error {
	signature := st.Settings.Security.Signature
	if signature.IsZero() {
		return &models.IntegrityError{Reason: "signature missing", Err: models.ErrStateTampered}
	}

	payload, err := serializeUnsigned(st)
	if err != nil {
		return err
	}

	if !crypto.VerifyMac(payload, password, signature.DataString()) {
		return &models.IntegrityError{Reason: "signature mismatch", Err: models.ErrStateTampered}
	}
	return nil
}

// serializeUnsigned renders st with the signature slot zeroed, leaving
// the in-memory state untouched.
func serializeUnsigned(st *models.State) ([]byte, error) {
	signed := st.Settings.Security.Signature
	st.Settings.Security.Signature = &crypto.Value{}
	payload, err := json.Marshal(st)
	st.Settings.Security.Signature = signed

	if err != nil {
		return nil, fmt.Errorf("serialize state: %w", err)
	}
	return payload, nil
}
