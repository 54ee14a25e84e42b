package handlers

import (
	"encoding/json"

	"github.com/agentstation/storefront/pkg/errors"
)

// mergePatch applies an RFC 7386 JSON merge patch to the JSON document doc.
func mergePatch(doc, patch []byte) ([]byte, error) {
	var target any
	if err := json.Unmarshal(doc, &target); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	var p any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return json.Marshal(mergeValue(target, p))
}

func mergeValue(target, patch any) any {
	patchObj, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	targetObj, ok := target.(map[string]any)
	if !ok {
		targetObj = map[string]any{}
	}
	for key, value := range patchObj {
		if value == nil {
			delete(targetObj, key)
			continue
		}
		targetObj[key] = mergeValue(targetObj[key], value)
	}
	return targetObj
}

// patchInto merges patch over the JSON form of current and decodes the
// result into a fresh value.
func patchInto[T any](current *T, patch []byte) (*T, error) {
	doc, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	merged, err := mergePatch(doc, patch)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return &out, nil
}
