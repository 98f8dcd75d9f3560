package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestNew_AutoDimension(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "TestFunction")
	initOnce.Do(func() {})
	functionName = "TestFunction"

	r := New(Namespace)
	if r.namespace != Namespace {
		t.Errorf("expected namespace %s, got %s", Namespace, r.namespace)
	}
	if r.dimensions["FunctionName"] != "TestFunction" {
		t.Errorf("expected FunctionName dimension TestFunction, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	functionName = "" // test isolation

	rec := New(Namespace)
	rec.Dimension("Result", "success")
	rec.Metric("GeminiApiLatencyMs", 812.5, UnitMilliseconds)
	rec.Count("ProcessRequests")
	rec.Property("photoSize", 1024)
	rec.Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsDir, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsDir["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}

	cwArr, ok := awsDir["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}

	if doc["Result"] != "success" {
		t.Errorf("expected Result=success, got %v", doc["Result"])
	}
	if doc["GeminiApiLatencyMs"] != 812.5 {
		t.Errorf("expected GeminiApiLatencyMs=812.5, got %v", doc["GeminiApiLatencyMs"])
	}
	if doc["ProcessRequests"] != float64(1) {
		t.Errorf("expected ProcessRequests=1, got %v", doc["ProcessRequests"])
	}
	if doc["photoSize"] != float64(1024) {
		t.Errorf("expected photoSize=1024, got %v", doc["photoSize"])
	}
}

func TestRecorder_EmptyFlushEmitsNothing(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	New(Namespace).Property("onlyProperty", "x").Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() != 0 {
		t.Errorf("expected no output when no metrics recorded, got %q", buf.String())
	}
}
