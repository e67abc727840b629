package driven

// FieldCipher encrypts and decrypts single sensitive string fields.
// A nil input yields a nil output in both directions.
type FieldCipher interface {
	Encrypt(plaintext *string) (*string, error)

	// Decrypt never fails: values that do not decrypt are returned unchanged
	// so rows written before encryption was introduced stay readable.
	Decrypt(ciphertext *string) *string
}
