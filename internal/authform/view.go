package authform

// View is everything a template needs to draw the form.
type View struct {
	Mode           Mode
	Title          string
	Values         Values
	State          State
	ShowFullName   bool
	SubmitDisabled bool
	SwitchPrompt   string
	SwitchLabel    string
	SwitchHref     string
	// ShowOTP is set once an account id exists; the OTP modal takes over.
	ShowOTP bool
}

// View snapshots the form for rendering.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	other := f.mode.Other()
	return View{
		Mode:           f.mode,
		Title:          f.mode.Title(),
		Values:         f.values,
		State:          f.state,
		ShowFullName:   f.mode == SignUp,
		SubmitDisabled: f.state.Loading,
		SwitchPrompt:   f.mode.SwitchPrompt(),
		SwitchLabel:    other.Title(),
		SwitchHref:     other.Path(),
		ShowOTP:        f.state.AccountID != "",
	}
}
