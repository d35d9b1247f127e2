package captcha

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taylordaughtry/formie/internal/form"
)

func sessionKey(prefix string, f *form.Form) string {
	return prefix + "_" + strconv.Itoa(f.ID)
}

// Javascript checks that the client ran the form script, which copies the
// issued value into a hidden input. The value also records when it was
// issued so that submissions faster than minTime seconds are rejected.
type Javascript struct {
	store   *Store
	minTime int
	now     func() time.Time
}

func (j *Javascript) Handle() string    { return "javascript" }
func (j *Javascript) GqlHandle() string { return "javascript" }

func (j *Javascript) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

func (j *Javascript) RefreshJSVariables(_ context.Context, f *form.Form) (map[string]string, error) {
	key := sessionKey("__JSCHECK", f)
	value := uuid.NewString() + "." + strconv.FormatInt(j.clock().Unix(), 10)
	j.store.Put(key, value)
	return map[string]string{"sessionKey": key, "value": value}, nil
}

func (j *Javascript) Validate(_ context.Context, f *form.Form, params map[string]string) bool {
	key := sessionKey("__JSCHECK", f)
	value := params[key]
	if !j.store.Consume(key, value) {
		return false
	}
	if j.minTime <= 0 {
		return true
	}
	i := strings.LastIndexByte(value, '.')
	issued, err := strconv.ParseInt(value[i+1:], 10, 64)
	if err != nil {
		return false
	}
	return j.clock().Unix()-issued >= int64(j.minTime)
}

// Duplicate rejects a second submission of the same rendered form.
type Duplicate struct {
	store *Store
}

func (d *Duplicate) Handle() string    { return "duplicate" }
func (d *Duplicate) GqlHandle() string { return "duplicate" }

func (d *Duplicate) RefreshJSVariables(_ context.Context, f *form.Form) (map[string]string, error) {
	key := sessionKey("__DUP", f)
	return map[string]string{"sessionKey": key, "value": d.store.Issue(key)}, nil
}

func (d *Duplicate) Validate(_ context.Context, f *form.Form, params map[string]string) bool {
	key := sessionKey("__DUP", f)
	return d.store.Consume(key, params[key])
}

// HoneypotParam is the hidden input bots tend to fill in.
const HoneypotParam = "beesknees"

// Honeypot has nothing to refresh on the client.
type Honeypot struct{}

func (h *Honeypot) Handle() string    { return "honeypot" }
func (h *Honeypot) GqlHandle() string { return "honeypot" }

func (h *Honeypot) RefreshJSVariables(context.Context, *form.Form) (map[string]string, error) {
	return nil, nil
}

func (h *Honeypot) Validate(_ context.Context, _ *form.Form, params map[string]string) bool {
	return params[HoneypotParam] == ""
}
