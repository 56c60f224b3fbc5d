package errs_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adamwoolhether/tablero/web/errs"
)

func ExampleNew() {
	err := errs.New(http.StatusBadRequest, fmt.Errorf("projectId is required"))

	b, _ := json.Marshal(err)

	fmt.Println(err.Code)
	fmt.Println(string(b))
	// Output:
	// 400
	// {"success":false,"error":"projectId is required"}
}

func ExampleNewInternal() {
	err := errs.NewInternal(fmt.Errorf("airtable unreachable"))

	fmt.Println(err.Code)
	fmt.Println(err.IsInternal())
	// Output:
	// 500
	// true
}

func ExampleGetFieldErrors() {
	err := fmt.Errorf("create task: %w", errs.NewFieldsError("nombreTarea", fmt.Errorf("This field is required")))

	for field, msg := range errs.GetFieldErrors(err).Fields() {
		fmt.Printf("%s: %s\n", field, msg)
	}
	// Output: nombreTarea: This field is required
}
