package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"echolog/internal/domain"
)

// SubmitRequest carries exactly one source: a normalized audio file to
// upload, or the durable id of a recording already stored backend-side.
type SubmitRequest struct {
	AudioPath   string
	RecordingID domain.RecordingID
}

// SubmitResponse pairs the transient job handle with the durable
// recording identifier. Both are required for every status poll.
type SubmitResponse struct {
	OperationID domain.OperationID `json:"operationId"`
	RecordingID domain.RecordingID `json:"recordingId"`
}

// StatusResponse is one poll result for a transcription job.
type StatusResponse struct {
	Status          domain.JobStatus       `json:"status"`
	Transcription   string                 `json:"transcription,omitempty"`
	TranscriptionID domain.TranscriptionID `json:"transcriptionId,omitempty"`
	AudioFilename   string                 `json:"audioFilename,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Submit starts a transcription job from an upload or an existing
// recording. Supplying neither or both sources is rejected locally
// before any network traffic.
func (c *Client) Submit(ctx context.Context, session domain.Session, req SubmitRequest) (SubmitResponse, error) {
	hasFile := strings.TrimSpace(req.AudioPath) != ""
	hasRecording := req.RecordingID != ""
	if hasFile == hasRecording {
		return SubmitResponse{}, &Error{
			Kind:    KindInvalidRequest,
			Message: "submit requires exactly one of an audio file or a recording id",
		}
	}

	var out SubmitResponse
	if hasRecording {
		in := struct {
			RecordingID domain.RecordingID `json:"recordingId"`
		}{RecordingID: req.RecordingID}
		if err := c.postJSON(ctx, session, "/transcribe", in, &out); err != nil {
			return SubmitResponse{}, err
		}
		return out, nil
	}

	payload, contentType, err := buildAudioForm(req.AudioPath)
	if err != nil {
		return SubmitResponse{}, &Error{
			Kind:    KindInvalidRequest,
			Message: fmt.Sprintf("cannot read audio file: %s", req.AudioPath),
			Err:     err,
		}
	}
	if err := c.do(ctx, session, http.MethodPost, "/transcribe", contentType, payload, &out); err != nil {
		return SubmitResponse{}, err
	}
	return out, nil
}

// PollStatus fetches job progress. The backend rejects status checks
// missing either identifier, so both are validated client-side first.
func (c *Client) PollStatus(ctx context.Context, session domain.Session, opID domain.OperationID, recID domain.RecordingID) (StatusResponse, error) {
	if opID == "" || recID == "" {
		return StatusResponse{}, &Error{
			Kind:    KindInvalidRequest,
			Message: "status poll requires the job handle and the recording id",
		}
	}

	path := fmt.Sprintf("/transcribe/status/%s?recordingId=%s",
		url.PathEscape(string(opID)), url.QueryEscape(string(recID)))

	var out StatusResponse
	if err := c.getJSON(ctx, session, path, &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// DeleteTranscription removes a stored transcription and its audio.
func (c *Client) DeleteTranscription(ctx context.Context, session domain.Session, id domain.TranscriptionID) error {
	if id == "" {
		return &Error{
			Kind:    KindInvalidRequest,
			Message: "delete requires a transcription id",
		}
	}
	path := "/transcribe/" + url.PathEscape(string(id))
	return c.do(ctx, session, http.MethodDelete, path, "", nil, nil)
}

// buildAudioForm packs the audio file into a multipart body.
func buildAudioForm(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body.Bytes(), writer.FormDataContentType(), nil
}
