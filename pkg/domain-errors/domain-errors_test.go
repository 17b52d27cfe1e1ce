package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Equal("access record not found", New(CodeNotFound, "access record not found").Error())
	s.Equal("service_error", (&Error{Code: CodeServiceError}).Error())
}

func (s *DomainErrorsSuite) TestWrapKeepsCauseOutOfMessage() {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	err := Wrap(cause, CodeServiceError, "Unable to retrieve credit report")

	s.Equal("Unable to retrieve credit report", err.Error())
	s.ErrorIs(err, cause)
	s.True(HasCode(err, CodeServiceError))
}

func (s *DomainErrorsSuite) TestWrapPreservesInnerCode() {
	inner := New(CodeFCRAViolation, "Access denied due to compliance requirements")
	err := Wrap(fmt.Errorf("authorize: %w", inner), CodeInternal, "outer")

	s.Equal(CodeFCRAViolation, CodeOf(err))
	s.False(HasCode(err, CodeInternal))
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := fmt.Errorf("store: %w", New(CodeNotFound, "access record not found"))

	s.ErrorIs(err, &Error{Code: CodeNotFound})
	s.NotErrorIs(err, &Error{Code: CodeConflict})
	s.False(errors.Is(err, errors.New("access record not found")))
}

func (s *DomainErrorsSuite) TestCodeOf() {
	cases := map[string]struct {
		err  error
		want Code
	}{
		"nil":     {nil, ""},
		"plain":   {errors.New("x"), ""},
		"direct":  {New(CodeTimeout, "t"), CodeTimeout},
		"wrapped": {fmt.Errorf("ctx: %w", New(CodeForbidden, "f")), CodeForbidden},
		"joined":  {errors.Join(errors.New("a"), New(CodeConflict, "c")), CodeConflict},
	}
	for name, tc := range cases {
		s.Run(name, func() {
			s.Equal(tc.want, CodeOf(tc.err))
		})
	}
	s.False(HasCode(errors.New("x"), ""))
}
