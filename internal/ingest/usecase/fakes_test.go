package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	accountdomain "jobtrack-backend/internal/account/domain"
	accountrepo "jobtrack-backend/internal/account/repository"
	appdomain "jobtrack-backend/internal/application/domain"
	apprepo "jobtrack-backend/internal/application/repository"
	appusecase "jobtrack-backend/internal/application/usecase"

	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	jobLabel   = "Label_JOBS"
	forceLabel = "Label_FORCE"
	forceName  = "JobTracker/ForceParse"
)

// fakeMail serves canned messages and records label edits.
type fakeMail struct {
	*fakeHistory
	mu       sync.Mutex
	messages map[string]*gmailapi.Message
	getErr   map[string]error
	removed  map[string][]string
	labels   map[string]string
}

func newFakeMail(history *fakeHistory) *fakeMail {
	if history == nil {
		history = &fakeHistory{}
	}
	return &fakeMail{
		fakeHistory: history,
		messages:    map[string]*gmailapi.Message{},
		getErr:      map[string]error{},
		removed:     map[string][]string{},
		labels:      map[string]string{forceName: forceLabel},
	}
}

func (f *fakeMail) add(id, subject string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[id] = &gmailapi.Message{
		Id:           id,
		ThreadId:     "t-" + id,
		LabelIds:     labels,
		InternalDate: 1772366400000,
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "Subject", Value: subject},
				{Name: "From", Value: "jobs@acme.example"},
			},
			Body: &gmailapi.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte("Body of " + subject))},
		},
	}
}

func (f *fakeMail) GetMessage(_ context.Context, id string) (*gmailapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[id]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, errors.New("message not found")
	}
	return msg, nil
}

func (f *fakeMail) ModifyMessageLabels(_ context.Context, id string, add, remove []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed[id] = append(f.removed[id], remove...)
	if msg, ok := f.messages[id]; ok {
		var kept []string
		for _, l := range msg.LabelIds {
			if !contains(remove, l) {
				kept = append(kept, l)
			}
		}
		msg.LabelIds = append(kept, add...)
	}
	return nil
}

func (f *fakeMail) FindLabelID(_ context.Context, name string) (string, error) {
	return f.labels[name], nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// subjectExtractor returns the extraction registered for the email subject.
type subjectExtractor struct {
	mu      sync.Mutex
	results map[string]*appdomain.ExtractionResult
	calls   int
}

func (e *subjectExtractor) Extract(_ context.Context, subject, _, _ string) *appdomain.ExtractionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if r, ok := e.results[subject]; ok {
		copied := *r
		return &copied
	}
	return appdomain.FallbackExtraction("no canned result")
}

// plainCipher treats the ciphertext as the plaintext when the nonce is "ok".
type plainCipher struct{}

func (plainCipher) Decrypt(nonce, sealed string) (string, error) {
	if nonce != "ok" {
		return "", errors.New("message authentication failed")
	}
	return sealed, nil
}

func (plainCipher) Encrypt(plain string) (string, string, error) { return "ok", plain, nil }

func (plainCipher) Version() int { return 1 }

type testEnv struct {
	db        *gorm.DB
	refs      apprepo.EmailReferenceRepository
	apps      apprepo.JobApplicationRepository
	events    apprepo.ApplicationEventRepository
	accounts  accountrepo.GmailAccountRepository
	extractor *subjectExtractor
	pipeline  *Pipeline
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&appdomain.JobApplication{}, &appdomain.ApplicationEvent{}, &appdomain.EmailReference{},
		&accountdomain.GmailAccount{},
	))

	env := &testEnv{
		db:        db,
		refs:      apprepo.NewEmailReferenceRepository(db),
		apps:      apprepo.NewJobApplicationRepository(db),
		events:    apprepo.NewApplicationEventRepository(db),
		accounts:  accountrepo.NewGmailAccountRepository(db),
		extractor: &subjectExtractor{results: map[string]*appdomain.ExtractionResult{}},
	}
	reconciler := appusecase.NewReconciler(env.apps, env.events, env.refs, appusecase.NewMatcher(env.apps))
	env.pipeline = NewPipeline(env.refs, env.extractor, reconciler)
	return env
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func extraction(intent appdomain.Intent, company, role string, status appdomain.ApplicationStatus) *appdomain.ExtractionResult {
	return &appdomain.ExtractionResult{
		Company:         company,
		Role:            role,
		Status:          status,
		Intent:          intent,
		ConfidenceScore: 0.9,
	}
}

func strPtr(s string) *string { return &s }

func linkAccount(t *testing.T, env *testEnv, email, cursor string) {
	t.Helper()
	acc := &accountdomain.GmailAccount{
		UserID:           "u1",
		GmailEmail:       email,
		GmailLabelID:     strPtr(jobLabel),
		RefreshNonceB64:  strPtr("ok"),
		RefreshCipherB64: strPtr("refresh-token"),
	}
	if cursor != "" {
		acc.GmailLastHistoryID = strPtr(cursor)
	}
	require.NoError(t, env.accounts.Save(context.Background(), acc))
}
