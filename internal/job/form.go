package job

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// ValidationError carries field-level failures. It is resolved locally and
// never crosses the store boundary.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// Intent fixes, at form-open time, whether a submission inserts a new
// posting or updates an existing one. The zero value is create.
type Intent struct {
	id string
}

func CreateIntent() Intent {
	return Intent{}
}

func UpdateIntent(id string) Intent {
	return Intent{id: id}
}

func (i Intent) IsUpdate() bool {
	return i.id != ""
}

func (i Intent) ID() string {
	return i.id
}

// FormController owns a single edit buffer shared by the create and update
// flows, so validation and submission state are never duplicated. The only
// differentiator between the two flows is the Intent.
type FormController struct {
	store    Store
	validate *validator.Validate
	// actingID reads the current identity at submit time. Empty means not
	// authenticated.
	actingID func() string
	// onFinish runs after a successful submit, after the buffer reset.
	// Callers use it to close the dialog and refresh the listing.
	onFinish func()

	intent Intent
	buffer JobRq
}

func NewFormController(store Store, actingID func() string, onFinish func()) *FormController {
	if onFinish == nil {
		onFinish = func() {}
	}
	return &FormController{
		store:    store,
		validate: validator.New(),
		actingID: actingID,
		onFinish: onFinish,
	}
}

// Open prepares the buffer for a new submission. For an update intent the
// buffer is pre-filled from the existing posting.
func (f *FormController) Open(intent Intent, existing *JobPost) {
	f.intent = intent
	if intent.IsUpdate() && existing != nil {
		f.buffer = JobRq{
			Title:          existing.Title,
			CompanyName:    existing.CompanyName,
			CompanyWebsite: existing.CompanyWebsite,
			Location:       existing.Location,
			Description:    existing.Description,
		}
		return
	}
	f.buffer = JobRq{}
}

func (f *FormController) SetBuffer(rq JobRq) {
	f.buffer = rq
}

func (f *FormController) Buffer() JobRq {
	return f.buffer
}

func (f *FormController) Intent() Intent {
	return f.intent
}

// Submit validates the buffer and dispatches insert or update depending on
// the intent. On success the buffer resets to its defaults and onFinish
// fires; on any failure the buffer is preserved so no user input is lost.
func (f *FormController) Submit() error {
	if err := f.validateBuffer(); err != nil {
		return err
	}
	acting := f.actingID()
	if acting == "" {
		return ErrNotAuthenticated
	}

	var err error
	if f.intent.IsUpdate() {
		err = f.store.Update(f.intent.ID(), acting, &f.buffer)
	} else {
		// owner comes from the acting session, whatever the buffer held
		_, err = f.store.Insert(&f.buffer, acting)
	}
	if err != nil {
		var dup *DuplicateFieldError
		if errors.As(err, &dup) {
			return &ValidationError{Fields: map[string]string{dup.Field: dup.Error()}}
		}
		return err
	}

	f.Reset()
	f.onFinish()
	return nil
}

// Reset restores the buffer to its empty defaults and the intent to create.
func (f *FormController) Reset() {
	f.buffer = JobRq{}
	f.intent = Intent{}
}

func (f *FormController) validateBuffer() error {
	err := f.validate.Struct(f.buffer)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		switch fe.StructField() {
		case "Title":
			fields["title"] = "Title must be at least 5 characters"
		case "CompanyName":
			fields["company_name"] = "Company name must be at least 2 characters"
		case "CompanyWebsite":
			fields["company_website"] = "Invalid URL"
		case "Description":
			fields["description"] = "Description must be at least 20 characters"
		default:
			fields[strings.ToLower(fe.StructField())] = fe.Error()
		}
	}
	return &ValidationError{Fields: fields}
}
