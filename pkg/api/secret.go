/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import "crypto/subtle"

// SecretVerifier compares request secrets against the configured one in
// constant time. An empty configured secret rejects every request.
type SecretVerifier struct {
	secret []byte
}

func NewSecretVerifier(secret string) *SecretVerifier {
	return &SecretVerifier{secret: []byte(secret)}
}

// Verify reports whether candidate matches the configured secret.
func (v *SecretVerifier) Verify(candidate string) bool {
	if len(v.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.secret, []byte(candidate)) == 1
}
