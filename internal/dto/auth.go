package dto

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type SendOTPResponse struct {
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
