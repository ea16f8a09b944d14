package adapter

import (
	"fmt"
	"time"

	"github.com/huddleapp/huddle/internal/api"
	"github.com/huddleapp/huddle/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:        job.Id,
		ChatId:    job.ChatId,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result: api.Result{
			Status:              string(job.Status),
			RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
		},
	}
}

func ToRAGExternalStatus(payload jobModel.JobPayload) *api.RAGResponse {
	if payload.Answer == "" && len(payload.Sources) == 0 {
		return nil
	}
	return &api.RAGResponse{
		Question: payload.Question,
		Answer:   payload.Answer,
		Context:  payload.ContextUsed,
		Sources:  payload.Sources,
	}
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
