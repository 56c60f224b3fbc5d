package throttle_test

import (
	"context"
	"fmt"
	"time"

	"github.com/adamwoolhether/tablero/throttle"
)

func ExampleDo() {
	q, err := throttle.New(throttle.WithMinDelay(10 * time.Millisecond))
	if err != nil {
		fmt.Println("build error:", err)
		return
	}
	defer q.Close(context.Background())

	msg, err := throttle.Do(context.Background(), q, func(ctx context.Context) (string, error) {
		return "hello", nil
	})
	if err != nil {
		fmt.Println("do error:", err)
		return
	}

	fmt.Println(msg)
	// Output: hello
}

func ExampleSubmit() {
	q, err := throttle.New(throttle.WithMinDelay(10 * time.Millisecond))
	if err != nil {
		fmt.Println("build error:", err)
		return
	}
	defer q.Close(context.Background())

	var futures []*throttle.Future[int]
	for i := range 3 {
		futures = append(futures, throttle.Submit(context.Background(), q, func(ctx context.Context) (int, error) {
			return i * i, nil
		}))
	}

	for _, f := range futures {
		v, err := f.Wait(context.Background())
		if err != nil {
			fmt.Println("wait error:", err)
			return
		}
		fmt.Println(v)
	}
	// Output:
	// 0
	// 1
	// 4
}
