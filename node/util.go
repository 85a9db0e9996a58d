package main

import (
	"log"
	"net/http"
	"slices"
	"time"
)

func RetryHTTPJSONRequest(req *http.Request, authToken string) (*http.Response, error) {
	req.Header.Add("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Add("Authorization", "Bearer "+authToken)
	}
	return RetryHTTPRequest(req)
}

// RetryHTTPRequest is meant for third party endpoints only. Requests to the
// Easee API go through the easee client which never retries on its own.
func RetryHTTPRequest(req *http.Request) (*http.Response, error) {
	isRetryCode := func(code int) bool {
		retryCodes := []int{405, 408, 412}
		return slices.Contains(retryCodes, code)
	}

	client := &http.Client{
		Timeout: time.Second * 60,
	}
	retryCounter := 1
	var resp *http.Response
	var err error
	for retryCounter <= 3 {
		resp, err = client.Do(req)
		if err != nil || (resp != nil && isRetryCode(resp.StatusCode)) {
			if resp != nil && retryCounter < 3 {
				resp.Body.Close()
			}
			time.Sleep(RetryHTTPDelay)
			retryCounter++
			if req.GetBody != nil {
				req.Body, _ = req.GetBody()
			}
		} else {
			retryCounter = 999
		}
	}
	return resp, err
}

var RetryHTTPDelay = 2 * time.Second

func LogDebug(s string) {
	if GetConfig().DebugLog {
		log.Println("DEBUG: " + s)
	}
}
