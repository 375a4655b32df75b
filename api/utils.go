package api

import (
	"github.com/GitProjsStack/chess-arena/http_utils"
)

const (
	ErrorMessage500 = "Something went wrong!"
)

func errorResponse(msg string) http_utils.BaseResponse {
	return http_utils.NewBaseResponse(http_utils.StatusError, msg)
}

func successResponse[T interface{}](msg string, data T) http_utils.DataResponse {
	return http_utils.NewDataResponse(msg, data)
}
