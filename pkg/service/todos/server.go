package todos

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/storacha/todos/internal/telemetry"
	"github.com/storacha/todos/pkg/auth"
)

// DeletedMessage is the body of a successful delete response.
const DeletedMessage = "Deleted successfully!"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadURLResponse is the body of a successful upload URL request.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

type Server struct {
	todos Todos
}

func NewServer(todos Todos) (*Server, error) {
	if todos == nil {
		return nil, errors.New("todos service is required")
	}
	return &Server{todos}, nil
}

// Serve registers the to-do routes.
func (srv *Server) Serve(e *echo.Echo) {
	e.GET("/todos", NewListHandler(srv.todos))
	e.POST("/todos", NewCreateHandler(srv.todos))
	e.PATCH("/todos/:todoId", NewUpdateHandler(srv.todos))
	e.DELETE("/todos/:todoId", NewDeleteHandler(srv.todos))
	e.POST("/todos/:todoId/attachment", NewUploadURLHandler(srv.todos))
}

// NewEcho creates an echo instance with the middleware and error handling
// every to-do route expects.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(CORSMiddleware())
	e.Use(LogMiddleware(log))
	e.Use(echomiddleware.Recover())
	e.HTTPErrorHandler = HandleError
	return e
}

// HandleError renders an error as a JSON response.
func HandleError(err error, c echo.Context) {
	if err == nil || c.Response().Committed {
		return
	}

	var te *Error
	if errors.As(err, &te) {
		if te.StatusCode() >= http.StatusInternalServerError {
			telemetry.ReportError(err)
		}
		_ = c.JSON(te.StatusCode(), ErrorResponse{Error: te.PublicMessage()})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		_ = c.JSON(he.Code, ErrorResponse{Error: fmt.Sprintf("%v", he.Message)})
		return
	}

	telemetry.ReportError(err)
	_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func NewListHandler(todos Todos) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "ListTodos"
		userID, err := auth.UserID(c.Request())
		if err != nil {
			return classify(op, err)
		}

		items, err := todos.List(c.Request().Context(), userID)
		if err != nil {
			return classify(op, err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func NewCreateHandler(todos Todos) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "CreateTodo"
		userID, err := auth.UserID(c.Request())
		if err != nil {
			return classify(op, err)
		}

		var req CreateRequest
		if err := decodeBody(c, &req); err != nil {
			return classify(op, err)
		}

		item, err := todos.Create(c.Request().Context(), userID, req)
		if err != nil {
			return classify(op, err)
		}
		return c.JSON(http.StatusCreated, item)
	}
}

func NewUpdateHandler(todos Todos) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "UpdateTodo"
		userID, err := auth.UserID(c.Request())
		if err != nil {
			return classify(op, err)
		}

		todoID, err := todoIDParam(c)
		if err != nil {
			return classify(op, err)
		}

		var req UpdateRequest
		if err := decodeBody(c, &req); err != nil {
			return classify(op, err)
		}

		if err := todos.Update(c.Request().Context(), userID, todoID, req); err != nil {
			return classify(op, err)
		}
		return c.NoContent(http.StatusOK)
	}
}

func NewDeleteHandler(todos Todos) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "DeleteTodo"
		userID, err := auth.UserID(c.Request())
		if err != nil {
			return classify(op, err)
		}

		todoID, err := todoIDParam(c)
		if err != nil {
			return classify(op, err)
		}

		if err := todos.Delete(c.Request().Context(), userID, todoID); err != nil {
			return classify(op, err)
		}
		return c.JSON(http.StatusAccepted, DeletedMessage)
	}
}

func NewUploadURLHandler(todos Todos) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "GenerateUploadURL"
		userID, err := auth.UserID(c.Request())
		if err != nil {
			return classify(op, err)
		}

		todoID, err := todoIDParam(c)
		if err != nil {
			return classify(op, err)
		}

		u, err := todos.IssueUploadURL(c.Request().Context(), userID, todoID)
		if err != nil {
			return classify(op, err)
		}
		return c.JSON(http.StatusCreated, UploadURLResponse{UploadURL: u.String()})
	}
}

func todoIDParam(c echo.Context) (string, error) {
	todoID := c.Param("todoId")
	if todoID == "" {
		return "", fmt.Errorf("%w: missing todo id", ErrBadRequest)
	}
	return todoID, nil
}

// decodeBody reads a single JSON value into v, rejecting fields v does not
// declare and any trailing data, and validates the result.
func decodeBody(c echo.Context, v any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %s", ErrBadRequest, err)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid request body: unexpected data after JSON value", ErrBadRequest)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %s", ErrBadRequest, err)
	}
	return nil
}
