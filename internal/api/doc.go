// Package api handles incoming HTTP requests, request validation, and
// response formatting for the video editing service. It acts as an adapter
// between external clients and the internal application services: upload
// and render endpoints translate HTTP concerns into scheduled background
// tasks, and task endpoints expose their progress and artifacts.
package api
