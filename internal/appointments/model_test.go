package appointments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func validCreateParams() *CreateParams {
	clientID := uuid.New()
	return &CreateParams{
		CoachID:           uuid.New(),
		ClientID:          &clientID,
		AppointmentTypeID: uuid.New(),
		Title:             "Weekly check-in",
		StartTime:         time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:           time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		MeetingType:       MeetingVideo,
	}
}

func TestCreateParamsValid(t *testing.T) {
	require.NoError(t, validCreateParams().Validate())
}

func TestCreateParamsParticipantExclusivity(t *testing.T) {
	email := "prospect@example.com"

	both := validCreateParams()
	both.ProspectEmail = &email
	err := both.Validate()
	require.Error(t, err)
	require.True(t, IsValidation(err), "both participants set must be a validation error")

	neither := validCreateParams()
	neither.ClientID = nil
	err = neither.Validate()
	require.Error(t, err)
	require.True(t, IsValidation(err), "no participant set must be a validation error")
}

func TestCreateParamsProspectNeedsRealEmail(t *testing.T) {
	params := validCreateParams()
	params.ClientID = nil
	bad := "not-an-email"
	params.ProspectEmail = &bad
	require.True(t, IsValidation(params.Validate()))

	good := "jordan@example.com"
	params.ProspectEmail = &good
	require.NoError(t, params.Validate())
}

func TestCreateParamsTimeOrdering(t *testing.T) {
	params := validCreateParams()
	params.EndTime = params.StartTime
	require.True(t, IsValidation(params.Validate()))

	params.EndTime = params.StartTime.Add(-time.Hour)
	require.True(t, IsValidation(params.Validate()))
}

func TestCreateParamsMeetingType(t *testing.T) {
	params := validCreateParams()
	params.MeetingType = "hologram"
	require.True(t, IsValidation(params.Validate()))

	for _, mt := range []MeetingType{MeetingVideo, MeetingPhone, MeetingInPerson} {
		params.MeetingType = mt
		require.NoError(t, params.Validate())
	}
}

func TestParticipantVariants(t *testing.T) {
	params := validCreateParams()
	client, ok := params.Participant().(Client)
	require.True(t, ok)
	require.Equal(t, *params.ClientID, client.ID)

	params.ClientID = nil
	email := "sam@example.com"
	name := "Sam"
	params.ProspectEmail = &email
	params.ProspectName = &name
	prospect, ok := params.Participant().(Prospect)
	require.True(t, ok)
	require.Equal(t, "sam@example.com", prospect.Email)
	require.Equal(t, "Sam", prospect.Name)
}

func TestUpdateParamsKeepTimeOrdering(t *testing.T) {
	apt := &Appointment{
		Title:       "Session",
		StartTime:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		Status:      StatusScheduled,
		MeetingType: MeetingPhone,
	}

	badEnd := apt.StartTime.Add(-time.Minute)
	err := (&UpdateParams{EndTime: &badEnd}).apply(apt)
	require.True(t, IsValidation(err))

	newStart := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	newEnd := newStart.Add(time.Hour)
	require.NoError(t, (&UpdateParams{StartTime: &newStart, EndTime: &newEnd}).apply(apt))
	require.Equal(t, newStart, apt.StartTime)
}
