// Command heartdisease trains the heart disease classifier, predicts single
// patients and serves the prediction form.
package main

import (
	"context"
	"os"

	"github.com/YuminosukeSato/heartpredict/pkg/log"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.GetLogger().Error("fatal error", err)
		os.Exit(1)
	}
}
