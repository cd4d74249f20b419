package user

type PasswordHasher interface {
	// HashPassword fails with a validation error if the password does not
	// satisfy the length rules.
	HashPassword(password RawPassword) (PasswordHash, error)
	// VerifyPassword returns false for a mismatch and an error only if the
	// hash itself is malformed.
	VerifyPassword(password RawPassword, hash PasswordHash) (bool, error)
}
