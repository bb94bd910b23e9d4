package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type meetingForm struct {
	Date  string `json:"date" validate:"required,datekey"`
	Slot  string `json:"slot" validate:"required,slot"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestCustomValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		form       meetingForm
		wantFields []string
	}{
		{name: "valid", form: meetingForm{Date: "2024-03-11", Slot: "10:00"}},
		{name: "rfc3339 date", form: meetingForm{Date: "2024-03-11T00:00:00Z", Slot: "17:00"}},
		{name: "missing", form: meetingForm{}, wantFields: []string{"date", "slot"}},
		{name: "lunch slot", form: meetingForm{Date: "2024-03-11", Slot: "12:00"}, wantFields: []string{"slot"}},
		{name: "bad date", form: meetingForm{Date: "11/03/2024", Slot: "10:00"}, wantFields: []string{"date"}},
		{name: "bad email", form: meetingForm{Date: "2024-03-11", Slot: "10:00", Email: "nope"}, wantFields: []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			msgs := v.FormatValidationErrors(err)
			assert.Len(t, msgs, len(tt.wantFields))
			for _, f := range tt.wantFields {
				assert.Contains(t, msgs, f)
			}
		})
	}
}

func TestCustomValidator_SlotMessageListsSlots(t *testing.T) {
	v := NewValidator()
	msgs := v.FormatValidationErrors(v.Validate(meetingForm{Date: "2024-03-11", Slot: "08:00"}))
	assert.Contains(t, msgs["slot"], "09:00")
	assert.Contains(t, msgs["slot"], "17:00")
}
