package handler

import "html/template"

var loginTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Remix Recipes</title></head>
<body>
<div class="text-center mt-36">
  <h1>Remix Recipes</h1>
  <form method="post" action="/login">
    <input type="email" name="email" placeholder="Email" autocomplete="off" value="{{.Email}}">
    {{with .Error}}<p class="error">{{.}}</p>{{end}}
    <button type="submit">Log In</button>
  </form>
</div>
</body>
</html>
`))

type loginView struct {
	Email string
	Error string
}

var signupTemplate = template.Must(template.New("signup").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign up | Remix Recipes</title></head>
<body>
<div class="text-center">
  <h1>You're almost done!</h1>
  <h2>Type in your name below to complete the signup process.</h2>
  <p>{{.Email}}</p>
  <form method="post">
    <input type="text" name="firstName" placeholder="First Name" autocomplete="off" value="{{.FirstName}}">
    <input type="text" name="lastName" placeholder="Last Name" autocomplete="off" value="{{.LastName}}">
    <button type="submit">Sign Up</button>
  </form>
</div>
</body>
</html>
`))

type signupView struct {
	Email     string
	FirstName string
	LastName  string
}
