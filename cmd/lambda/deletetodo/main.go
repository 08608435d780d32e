package main

import (
	"net/http"

	"github.com/storacha/todos/cmd/lambda"
	"github.com/storacha/todos/pkg/service/todos"
)

func main() {
	lambda.StartTodoHandler(http.MethodDelete, "/todos/:todoId", todos.NewDeleteHandler)
}
