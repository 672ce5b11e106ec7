package engine

import (
	"regexp"
	"strings"

	domainerrors "github.com/leengari/importq/internal/domain/errors"
	"github.com/leengari/importq/internal/parser/lexer"
)

// tableNameRegex accepts names the query parser reads as a bare identifier
var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const maxTableNameLength = 63

// validateTableName rejects names that could never be queried
func validateTableName(name string) error {
	if len(name) > maxTableNameLength || !tableNameRegex.MatchString(name) ||
		lexer.LookupIdent(name) != lexer.IDENTIFIER {
		return &domainerrors.InvalidTableNameError{Name: name}
	}
	return nil
}

// validateOwner rejects owner ids that are blank, dot segments or carry a
// path separator
func validateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" || owner == "." || owner == ".." ||
		strings.ContainsAny(owner, `/\`) {
		return &domainerrors.InvalidOwnerError{Owner: owner}
	}
	return nil
}
