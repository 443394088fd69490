package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/unitrack/internal/application"
)

func TestDeriveStatusBadge(t *testing.T) {
	tests := []struct {
		name string
		app  application.Application
		want application.Badge
	}{
		{name: "NoFlags", app: application.Application{}, want: application.BadgeNone},
		{name: "ApplicationOnly", app: application.Application{ApplicationStage: true}, want: application.BadgeApplicationStage},
		{name: "InterviewOnly", app: application.Application{Interview: true}, want: application.BadgeInterview},
		{name: "VisaOnly", app: application.Application{VisaProcess: true}, want: application.BadgeVisaProcess},
		{
			name: "InterviewDominatesApplication",
			app:  application.Application{ApplicationStage: true, Interview: true},
			want: application.BadgeInterview,
		},
		{
			name: "VisaDominatesApplication",
			app:  application.Application{ApplicationStage: true, VisaProcess: true},
			want: application.BadgeVisaProcess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, application.DeriveStatusBadge(&tt.app))
		})
	}
}

func TestDeriveStatusBadge_VisaAlwaysWins(t *testing.T) {
	for _, appStage := range []bool{false, true} {
		for _, interview := range []bool{false, true} {
			app := &application.Application{ApplicationStage: appStage, Interview: interview, VisaProcess: true}
			assert.Equal(t, application.BadgeVisaProcess, application.DeriveStatusBadge(app))
		}
	}
}

func TestDeriveStatusBadge_Nil(t *testing.T) {
	assert.Equal(t, application.BadgeNone, application.DeriveStatusBadge(nil))
}
