package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBRDUpload(t *testing.T) {
	tests := []struct {
		name    string
		upload  BRDUpload
		wantErr error
	}{
		{name: "pdf", upload: BRDUpload{Filename: "brd.pdf", ContentType: "application/pdf", Size: 1024}},
		{name: "pdf with params", upload: BRDUpload{Filename: "brd", ContentType: "application/pdf; qs=1", Size: 1}},
		{name: "octet stream with pdf extension", upload: BRDUpload{Filename: "BRD.PDF", ContentType: "application/octet-stream", Size: 1}},
		{name: "no content type with pdf extension", upload: BRDUpload{Filename: "brd.pdf", Size: 1}},
		{name: "just under limit", upload: BRDUpload{Filename: "brd.pdf", ContentType: "application/pdf", Size: MaxBRDUploadBytes - 1}},
		{name: "exactly the limit", upload: BRDUpload{Filename: "brd.pdf", ContentType: "application/pdf", Size: MaxBRDUploadBytes}, wantErr: ErrUploadTooLarge},
		{name: "docx", upload: BRDUpload{Filename: "brd.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 10}, wantErr: ErrUploadNotPDF},
		{name: "pdf extension wrong type", upload: BRDUpload{Filename: "brd.pdf", ContentType: "text/plain", Size: 10}, wantErr: ErrUploadNotPDF},
		{name: "empty", upload: BRDUpload{Filename: "brd.pdf", ContentType: "application/pdf"}, wantErr: ErrUploadEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBRDUpload(tt.upload)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateCaseRequest_Validate(t *testing.T) {
	req := CreateCaseRequest{Name: "  Checkout revamp  "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Checkout revamp", req.Name)

	req = CreateCaseRequest{Name: "   "}
	req.Normalize()
	assert.Error(t, req.Validate())

	req = CreateCaseRequest{Name: strings.Repeat("x", maxCaseNameLen+1)}
	assert.Error(t, req.Validate())
}

func TestCaseStatus_Valid(t *testing.T) {
	assert.True(t, CaseStatusProcessing.Valid())
	assert.False(t, CaseStatus("archived").Valid())
}

func TestPipelineStatus_DecodeIdle(t *testing.T) {
	var st PipelineStatus
	require.NoError(t, json.Unmarshal([]byte(`{"case_id":"c1","status":"idle","current_step":null,"progress":0}`), &st))
	assert.Nil(t, st.CurrentStep)
	assert.False(t, st.Status.Terminal())

	require.NoError(t, json.Unmarshal([]byte(`{"case_id":"c1","status":"running","current_step":"sections","progress":40.5}`), &st))
	require.NotNil(t, st.CurrentStep)
	assert.Equal(t, PipelineStepSections, *st.CurrentStep)
	assert.InDelta(t, 40.5, st.Progress, 0.001)
	assert.True(t, PipelineStateFailed.Terminal())
}

func TestTBRDContent_Ordered(t *testing.T) {
	content := TBRDContent{Sections: []Section{
		{SectionKey: "risks", Order: 3},
		{SectionKey: "overview", Order: 1},
		{SectionKey: "scope", Order: 2},
	}}

	ordered := content.Ordered()
	keys := make([]string, 0, len(ordered))
	for _, s := range ordered {
		keys = append(keys, s.SectionKey)
	}
	assert.Equal(t, []string{"overview", "scope", "risks"}, keys)
	assert.Equal(t, "risks", content.Sections[0].SectionKey, "original order untouched")
}
