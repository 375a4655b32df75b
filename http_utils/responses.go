package http_utils

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type DataResponse struct {
	BaseResponse
	Data interface{} `json:"data"`
}

type ValidationErrorResponse struct {
	BaseResponse
	Errors []string `json:"errors"`
}

func NewBaseResponse(status, msg string) BaseResponse {
	return BaseResponse{
		Status:  status,
		Message: msg,
	}
}

func NewDataResponse(msg string, data any) DataResponse {
	return DataResponse{
		BaseResponse: NewBaseResponse(StatusSuccess, msg),
		Data:         data,
	}
}
