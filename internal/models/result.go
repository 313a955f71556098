package models

type UploadResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	FileType     string `json:"file_type"`
}

type ScreenRequest struct {
	JobCategory     string `json:"job_category"`
	CVDocumentID    string `json:"cv_document_id"`
	AudioDocumentID string `json:"audio_document_id,omitempty"`
}

type ScreenResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID          string           `json:"id"`
	Status      string           `json:"status"`
	JobCategory string           `json:"job_category"`
	Candidate   *CandidateRecord `json:"candidate,omitempty"`
	Audio       *AudioRecord     `json:"audio,omitempty"`
	ReportURL   string           `json:"report_url,omitempty"`
	Error       *ErrorDetail     `json:"error,omitempty"`
}

type ErrorDetail struct {
	Kind    string `json:"kind,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}
