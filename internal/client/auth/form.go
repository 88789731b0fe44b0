package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/validation"
)

// Messages shown by the form
const (
	MsgLoginRequired    = "Username and password are required"
	MsgRegisterRequired = "All fields are required"
	MsgInvalidLogin     = "Invalid credentials"
	MsgRegisterFailed   = "Registration failed"
	MsgUnexpected       = "An error occurred. Please try again."
)

// Mode of the form
type Mode int

// Form modes
const (
	ModeLogin Mode = iota
	ModeRegister
)

func (m Mode) String() string {
	if m == ModeRegister {
		return "Register"
	}
	return "Login"
}

// Authenticator signs users in
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) error
}

type loginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type registerInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// FormState is what the auth dialog renders
type FormState struct {
	Mode    Mode
	Fields  models.RegisterAndLogin
	Loading bool
	Error   string
}

// Form is the combined login and registration form
type Form struct {
	mu        sync.Mutex
	mode      Mode
	fields    models.RegisterAndLogin
	loading   bool
	errMsg    string
	auth      Authenticator
	onSuccess func()
	onClose   func()
	onChange  func(FormState)
}

// NewForm creates a form in login mode. On success onSuccess runs, then onClose.
func NewForm(auth Authenticator, onSuccess, onClose func()) *Form {
	return &Form{auth: auth, onSuccess: onSuccess, onClose: onClose}
}

// OnChange registers the listener called after every state change
func (f *Form) OnChange(fn func(FormState)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// State returns a snapshot of the form
func (f *Form) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

func (f *Form) snapshot() FormState {
	return FormState{Mode: f.mode, Fields: f.fields, Loading: f.loading, Error: f.errMsg}
}

func (f *Form) notifyAndUnlock() {
	fn, snap := f.onChange, f.snapshot()
	f.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// SetUsername updates the username field
func (f *Form) SetUsername(v string) {
	f.mu.Lock()
	f.fields.Username = v
	f.notifyAndUnlock()
}

// SetEmail updates the email field, only used when registering
func (f *Form) SetEmail(v string) {
	f.mu.Lock()
	f.fields.Email = v
	f.notifyAndUnlock()
}

// SetPassword updates the password field
func (f *Form) SetPassword(v string) {
	f.mu.Lock()
	f.fields.Password = v
	f.notifyAndUnlock()
}

// ToggleMode switches between login and registration and clears the form
func (f *Form) ToggleMode() {
	f.mu.Lock()
	if f.mode == ModeLogin {
		f.mode = ModeRegister
	} else {
		f.mode = ModeLogin
	}
	f.fields = models.RegisterAndLogin{}
	f.errMsg = ""
	f.notifyAndUnlock()
}

// Submit checks the fields for the current mode and signs in
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	mode, fields := f.mode, f.fields

	var input any = loginInput{Username: fields.Username, Password: fields.Password}
	required := MsgLoginRequired
	if mode == ModeRegister {
		input = registerInput{Username: fields.Username, Email: fields.Email, Password: fields.Password}
		required = MsgRegisterRequired
	}
	if err := validation.Struct(input); err != nil {
		f.errMsg = required
		f.notifyAndUnlock()
		return err
	}

	f.loading = true
	f.errMsg = ""
	f.notifyAndUnlock()

	var err error
	if mode == ModeLogin {
		err = f.auth.Login(ctx, fields.Username, fields.Password)
	} else {
		err = f.auth.Register(ctx, fields.Username, fields.Email, fields.Password)
	}

	f.mu.Lock()
	f.loading = false
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			f.errMsg = MsgInvalidLogin
		case errors.Is(err, ErrRegistrationRejected):
			f.errMsg = MsgRegisterFailed
		default:
			f.errMsg = MsgUnexpected
		}
		f.notifyAndUnlock()
		return err
	}
	f.fields = models.RegisterAndLogin{}
	f.notifyAndUnlock()

	if f.onSuccess != nil {
		f.onSuccess()
	}
	if f.onClose != nil {
		f.onClose()
	}
	return nil
}

// Close dismisses the dialog
func (f *Form) Close() {
	if f.onClose != nil {
		f.onClose()
	}
}
