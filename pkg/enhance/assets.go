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

package enhance

const viewportMeta = `<meta name="viewport" content="width=device-width, initial-scale=1">`

const fontLink = `<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="stylesheet" href="https://fonts.googleapis.com/css2?family=Inter:wght@400;600;700&display=swap">`

const themeToggle = `<button id="theme-toggle" class="theme-toggle" type="button" aria-label="Toggle dark mode">&#127763;</button>
<script>
(function () {
  var key = "pagesmith-theme";
  var body = document.body;
  if (localStorage.getItem(key) === "dark") {
    body.classList.add("dark-mode");
  }
  document.getElementById("theme-toggle").addEventListener("click", function () {
    body.classList.toggle("dark-mode");
    localStorage.setItem(key, body.classList.contains("dark-mode") ? "dark" : "light");
  });
})();
</script>
`

const designCSS = `
/* pagesmith design system */
body {
  font-family: "Inter", system-ui, -apple-system, "Segoe UI", sans-serif;
  transition: background-color 0.3s ease, color 0.3s ease;
}
header, .header {
  background: linear-gradient(135deg, #4f46e5 0%, #06b6d4 100%);
  color: #fff;
  padding: 1.5rem 1rem;
}
.card {
  border-radius: 12px;
  box-shadow: 0 2px 8px rgba(0, 0, 0, 0.08);
  transition: transform 0.2s ease, box-shadow 0.2s ease;
}
.card:hover {
  transform: translateY(-4px);
  box-shadow: 0 8px 24px rgba(0, 0, 0, 0.15);
}
.theme-toggle {
  position: fixed;
  right: 1rem;
  bottom: 1rem;
  border: none;
  border-radius: 50%;
  width: 2.75rem;
  height: 2.75rem;
  cursor: pointer;
  font-size: 1.25rem;
  box-shadow: 0 2px 8px rgba(0, 0, 0, 0.2);
}
body.dark-mode {
  background-color: #0f172a;
  color: #e2e8f0;
}
body.dark-mode .card {
  background-color: #1e293b;
  color: #e2e8f0;
}
body.dark-mode a {
  color: #7dd3fc;
}
`
