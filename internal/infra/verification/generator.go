package verification

import (
	"time"

	"labfry/internal/domain/service"
)

// codeGenerator implements service.CodeGenerator on top of the package functions.
type codeGenerator struct{}

// NewCodeGenerator is the constructor for codeGenerator.
func NewCodeGenerator() service.CodeGenerator {
	return codeGenerator{}
}

func (codeGenerator) Generate() (string, error) {
	return GenerateCode()
}

func (codeGenerator) Expiry() time.Time {
	return CodeExpiry()
}

func (codeGenerator) IsExpired(expiry *time.Time) bool {
	return IsExpired(expiry)
}

func (codeGenerator) ValidFormat(code string) bool {
	return IsValidFormat(code)
}
