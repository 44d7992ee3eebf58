package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

const (
	PathLogout      = "/accounts/logout-clear-media/"
	PathJobs        = "/jobs/"
	PathJobSkills   = "/jobs/skills/"
	PathResumes     = "/resumes/"
	PathUpload      = "/resumes/upload/"
	PathBulkDelete  = "/resumes/bulk-delete/"
	PathReports     = "/reports/"
	uploadFileField = "files"
	uploadJobField  = "job"
)

// Client is the typed surface of the resume screening API.
type Client struct {
	pipeline *Pipeline
}

func NewClient(pipeline *Pipeline) *Client {
	return &Client{pipeline: pipeline}
}

func (c *Client) Pipeline() *Pipeline {
	return c.pipeline
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	return c.pipeline.Authenticate(ctx, username, password)
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	return c.postJSON(ctx, PathRegister, map[string]string{
		"username":  username,
		"email":     email,
		"password":  password,
		"password2": password,
	}, nil)
}

// Logout asks the server to drop the session media and clears local credentials on success.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.postJSON(ctx, PathLogout, nil, nil); err != nil {
		return err
	}
	return c.pipeline.ClearCredentials()
}

func (c *Client) ListJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := c.getJSON(ctx, PathJobs, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobSkills returns the server skill suggestions for job. A payload without a
// string list under "skills" yields an empty list.
func (c *Client) JobSkills(ctx context.Context, job string) ([]string, error) {
	resp, err := c.pipeline.Send(ctx, &Request{
		Method: http.MethodGet,
		Path:   PathJobSkills,
		Query:  url.Values{"job": []string{job}},
	})
	if err != nil {
		return nil, err
	}
	return parseSkills(resp.Body), nil
}

func parseSkills(body []byte) []string {
	var payload struct {
		Skills json.RawMessage `json:"skills"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return []string{}
	}
	var raw []any
	if err := json.Unmarshal(payload.Skills, &raw); err != nil {
		return []string{}
	}
	skills := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			skills = append(skills, s)
		}
	}
	return []string(domain.NewSkillSet(skills))
}

func (c *Client) SaveJobSkills(ctx context.Context, job string, skills []string) error {
	if skills == nil {
		skills = []string{}
	}
	return c.postJSON(ctx, PathJobs, map[string]any{
		"job":    job,
		"skills": skills,
	}, nil)
}

func (c *Client) ListResumes(ctx context.Context) ([]domain.ResumeRecord, error) {
	var records []domain.ResumeRecord
	if err := c.getJSON(ctx, PathResumes, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UploadResumes sends every file under the repeated "files" field together with the job title.
func (c *Client) UploadResumes(ctx context.Context, job string, files []domain.UploadFile) ([]domain.ExtractedResume, error) {
	body, contentType, err := encodeUpload(job, files)
	if err != nil {
		return nil, err
	}
	resp, err := c.pipeline.Send(ctx, &Request{
		Method:      http.MethodPost,
		Path:        PathUpload,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Extracted []domain.ExtractedResume `json:"extracted"`
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, nil
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, fmt.Errorf("api upload resumes: %w", err)
	}
	return payload.Extracted, nil
}

func encodeUpload(job string, files []domain.UploadFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, file := range files {
		if err := writeUploadPart(writer, file); err != nil {
			return nil, "", err
		}
	}
	if err := writer.WriteField(uploadJobField, job); err != nil {
		return nil, "", fmt.Errorf("write job field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeUploadPart(writer *multipart.Writer, file domain.UploadFile) error {
	if file.Open == nil {
		return fmt.Errorf("upload file %q: no content", file.Name)
	}
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload file %q: %w", file.Name, err)
	}
	defer src.Close()

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		uploadFileField, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", file.MIMEType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create part for %q: %w", file.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy upload file %q: %w", file.Name, err)
	}
	return nil
}

func (c *Client) BulkDeleteResumes(ctx context.Context, ids []int) error {
	return c.postJSON(ctx, PathBulkDelete, map[string][]int{"ids": ids}, nil)
}

func (c *Client) ListReports(ctx context.Context) ([]domain.Report, error) {
	var reports []domain.Report
	if err := c.getJSON(ctx, PathReports, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.pipeline.Send(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return err
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("api %s: %w", operationName(http.MethodGet, path), err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	req, err := NewJSONRequest(http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	resp, err := c.pipeline.Send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("api %s: %w", operationName(http.MethodPost, path), err)
	}
	return nil
}
