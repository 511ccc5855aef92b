package model

import (
	"strings"
	"testing"

	"github.com/claimflow/claimflow/internal/validation"
)

func bind(t *testing.T, body string) *validation.Binder {
	t.Helper()
	p, err := validation.Decode(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	return p.Bind()
}

func TestBindContactSubmission_Valid(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"name":"Grace Hopper","email":"grace@navy.mil","message":"Need a demo"}`)
	c := BindContactSubmission(b)

	if errs := validation.New().Check(b, c); errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}

	fields := c.Fields()
	if fields["source"] != DefaultSource {
		t.Errorf("source = %v, want %s", fields["source"], DefaultSource)
	}
	if fields["company"] != nil {
		t.Errorf("company = %v, want nil", fields["company"])
	}
	if fields["name"] != "Grace Hopper" || fields["message"] != "Need a demo" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestBindContactSubmission_Company(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"name":"Grace","email":"grace@navy.mil","message":"Need a demo","company":"Navy","source":"pricing"}`)
	c := BindContactSubmission(b)

	fields := c.Fields()
	if fields["company"] != "Navy" {
		t.Errorf("company = %v, want Navy", fields["company"])
	}
	if fields["source"] != "pricing" {
		t.Errorf("source = %v, want pricing", fields["source"])
	}
}

func TestBindContactSubmission_ShortFields(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"name":"A","email":"x@y.com","message":"hi"}`)
	c := BindContactSubmission(b)
	errs := validation.New().Check(b, c)

	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	for _, fe := range errs {
		if fe.Type != validation.TypeTooShort {
			t.Errorf("unexpected error type %s for %v", fe.Type, fe.Loc)
		}
	}
}

func TestBindContactSubmission_MissingMessage(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"name":"Grace","email":"grace@navy.mil"}`)
	c := BindContactSubmission(b)
	errs := validation.New().Check(b, c)

	if len(errs) != 1 || errs[0].Loc[1] != "message" || errs[0].Type != validation.TypeMissing {
		t.Fatalf("expected single missing message error, got %v", errs)
	}
}

func TestBindSubscriber_Defaults(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"email":"a@b.com"}`)
	s := BindSubscriber(b)

	if errs := validation.New().Check(b, s); errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}

	fields := s.Fields()
	if fields["consent"] != true {
		t.Errorf("consent = %v, want true", fields["consent"])
	}
	if fields["source"] != DefaultSource {
		t.Errorf("source = %v, want %s", fields["source"], DefaultSource)
	}
}

func TestBindSubscriber_InvalidEmail(t *testing.T) {
	t.Parallel()

	b := bind(t, `{"email":"nope","consent":false}`)
	s := BindSubscriber(b)
	errs := validation.New().Check(b, s)

	if len(errs) != 1 || errs[0].Type != validation.TypeInvalidMail {
		t.Fatalf("expected email error, got %v", errs)
	}
	if s.Consent {
		t.Error("explicit consent=false should be kept")
	}
}
