package usecase

import (
	"context"
	"errors"
	"testing"

	appdomain "jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/ingest/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(id string) domain.MessageRef {
	return domain.MessageRef{MessageID: id, ThreadID: "t-" + id, HistoryID: "10"}
}

func TestIngestIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Thanks for applying", jobLabel)
	env.extractor.results["Thanks for applying"] = extraction(appdomain.IntentNewApplication, "Acme Corp", "Backend Engineer", appdomain.StatusApplied)

	first, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProcessed, first.Status)
	assert.True(t, first.CreatedNewApplication)
	assert.NotEmpty(t, first.ApplicationID)

	second, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDuplicate, second.Status)
	assert.Equal(t, first.EmailID, second.EmailID)

	assert.Equal(t, 1, env.extractor.calls)
	assert.EqualValues(t, 1, env.count(t, &appdomain.EmailReference{}))
	assert.EqualValues(t, 1, env.count(t, &appdomain.JobApplication{}))
	assert.EqualValues(t, 0, env.count(t, &appdomain.ApplicationEvent{}))

	stored, err := env.refs.FindByMessageID(ctx, "u1", "m1")
	require.NoError(t, err)
	require.NotNil(t, stored.ApplicationID)
	assert.Equal(t, first.ApplicationID, *stored.ApplicationID)
	assert.Equal(t, "Thanks for applying", stored.Subject)
	assert.Equal(t, "t-m1", *stored.ThreadID)
	assert.Equal(t, "10", *stored.HistoryCursor)
	assert.Equal(t, appdomain.IntentNewApplication, stored.Intent)
}

func TestIngestGeneralTouchesNoApplicationState(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Weekly job alert", jobLabel)
	env.extractor.results["Weekly job alert"] = extraction(appdomain.IntentGeneral, "Acme Corp", "Engineer", appdomain.StatusApplied)

	out, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, out.Status)
	assert.NotEmpty(t, out.EmailID)
	assert.Empty(t, out.ApplicationID)

	assert.EqualValues(t, 1, env.count(t, &appdomain.EmailReference{}))
	assert.EqualValues(t, 0, env.count(t, &appdomain.JobApplication{}))
	assert.EqualValues(t, 0, env.count(t, &appdomain.ApplicationEvent{}))
}

func TestIngestEventWithoutMatchCreatesApplication(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Interview invitation", jobLabel)
	ex := extraction(appdomain.IntentApplicationEvent, "Globex", "Data Engineer", appdomain.StatusInterview)
	et := appdomain.EventInterviewScheduled
	ex.EventType = &et
	env.extractor.results["Interview invitation"] = ex

	out, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeProcessed, out.Status)
	assert.True(t, out.CreatedNewApplication)

	events, err := env.events.ListByApplication(ctx, "u1", out.ApplicationID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, appdomain.EventInterviewScheduled, events[0].EventType)
	require.NotNil(t, events[0].EmailID)
	assert.Equal(t, out.EmailID, *events[0].EmailID)

	app, err := env.apps.FindByID(ctx, "u1", out.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, appdomain.StatusInterview, app.Status)
}

func TestIngestForceLabelBypassesDedupOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Offer letter", jobLabel)
	env.extractor.results["Offer letter"] = extraction(appdomain.IntentNewApplication, "Initech", "SRE", appdomain.StatusOffered)

	first, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)

	require.NoError(t, mail.ModifyMessageLabels(ctx, "m1", []string{forceLabel}, nil))
	forced, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProcessed, forced.Status)
	assert.True(t, forced.Forced)
	assert.Equal(t, first.EmailID, forced.EmailID)
	assert.Equal(t, []string{forceLabel}, mail.removed["m1"])
	assert.NotContains(t, mail.messages["m1"].LabelIds, forceLabel)

	again, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDuplicate, again.Status)

	assert.Equal(t, 2, env.extractor.calls)
	assert.EqualValues(t, 1, env.count(t, &appdomain.EmailReference{}))
}

func TestIngestForcedRerunUpdatesStoredClassification(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Next steps", jobLabel)
	env.extractor.results["Next steps"] = extraction(appdomain.IntentGeneral, "", "", appdomain.StatusApplied)

	first, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSkipped, first.Status)

	stored, err := env.refs.FindByMessageID(ctx, "u1", "m1")
	require.NoError(t, err)
	require.NotNil(t, stored.BodyText)
	assert.Equal(t, "Body of Next steps", *stored.BodyText)
	assert.False(t, stored.ParsedAt.IsZero())
	assert.Equal(t, appdomain.IntentGeneral, stored.Intent)

	corrected := extraction(appdomain.IntentNewApplication, "Initech", "SRE", appdomain.StatusInterview)
	corrected.ConfidenceScore = 0.55
	env.extractor.results["Next steps"] = corrected
	require.NoError(t, mail.ModifyMessageLabels(ctx, "m1", []string{forceLabel}, nil))

	forced, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeProcessed, forced.Status)

	stored, err = env.refs.FindByMessageID(ctx, "u1", "m1")
	require.NoError(t, err)
	assert.Equal(t, appdomain.IntentNewApplication, stored.Intent)
	assert.InDelta(t, 0.55, stored.ConfidenceScore, 1e-9)
	require.NotNil(t, stored.ApplicationID)
	assert.Equal(t, forced.ApplicationID, *stored.ApplicationID)
}

func TestIngestForceLabelClearedWhenReconcileFails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.add("m1", "Status update", jobLabel, forceLabel)
	env.extractor.results["Status update"] = extraction(appdomain.IntentApplicationEvent, "", "Engineer", appdomain.StatusRejected)

	_, err := env.pipeline.Ingest(ctx, "u1", ref("m1"), mail, forceLabel)
	require.Error(t, err)
	assert.Equal(t, []string{forceLabel}, mail.removed["m1"])
	assert.EqualValues(t, 0, env.count(t, &appdomain.JobApplication{}))
}

func TestIngestFetchFailure(t *testing.T) {
	env := newTestEnv(t)
	mail := newFakeMail(nil)
	mail.getErr["m1"] = errors.New("googleapi: Error 500")

	_, err := env.pipeline.Ingest(context.Background(), "u1", ref("m1"), mail, forceLabel)
	require.Error(t, err)
	assert.Equal(t, 0, env.extractor.calls)
	assert.EqualValues(t, 0, env.count(t, &appdomain.EmailReference{}))
}
