package usecase

// Proof identifies an account for email verification or password reset.
// It is a closed union: either a signed link token, or a 6-digit code paired
// with the email it was sent to. Constructing it through TokenProof or
// CodeProof makes "exactly one mode supplied" hold by construction.
type Proof struct {
	kind  proofKind
	token string
	code  string
	email string
}

type proofKind int

const (
	proofToken proofKind = iota + 1
	proofCode
)

// TokenProof builds a proof from a signed link token.
func TokenProof(token string) Proof {
	return Proof{kind: proofToken, token: token}
}

// CodeProof builds a proof from a 6-digit code and the email it was sent to.
func CodeProof(code, email string) Proof {
	return Proof{kind: proofCode, code: code, email: email}
}

// IsToken reports whether the proof is a link token and returns it.
func (p Proof) IsToken() (string, bool) {
	return p.token, p.kind == proofToken
}

// IsCode reports whether the proof is a code and returns it with its email.
func (p Proof) IsCode() (code, email string, ok bool) {
	return p.code, p.email, p.kind == proofCode
}

// Valid reports whether the proof was built through one of the constructors.
func (p Proof) Valid() bool {
	return p.kind == proofToken || p.kind == proofCode
}
